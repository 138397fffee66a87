package interfaces

import (
	"context"

	"github.com/ternarybob/scribo/internal/models"
)

// SearchProvider defines the interface for web search services.
//
// Providers return at most maxResults records. Results are not deduplicated
// across calls; the research stage owns URL dedup.
type SearchProvider interface {
	// Search executes one query and returns matching sources
	Search(ctx context.Context, query string, maxResults int) ([]models.SourceRecord, error)

	// Name returns the provider identifier ("exa", "google", "disabled")
	Name() string
}
