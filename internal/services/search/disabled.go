package search

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// ErrSearchDisabled is returned when search is explicitly turned off
var ErrSearchDisabled = fmt.Errorf("search provider is disabled in configuration")

// DisabledService is a no-op provider used when search is turned off. It
// implements interfaces.SearchProvider but fails every query, which leaves
// the research stage on its zero-source fallbacks.
type DisabledService struct {
	logger arbor.ILogger
}

// NewDisabledService creates a no-op search provider
func NewDisabledService(logger arbor.ILogger) interfaces.SearchProvider {
	return &DisabledService{logger: logger}
}

// Name returns the provider identifier
func (s *DisabledService) Name() string {
	return "disabled"
}

// Search returns ErrSearchDisabled
func (s *DisabledService) Search(ctx context.Context, query string, maxResults int) ([]models.SourceRecord, error) {
	s.logger.Warn().
		Str("query", truncateQuery(query)).
		Msg("Search attempted but provider is disabled")
	return nil, ErrSearchDisabled
}
