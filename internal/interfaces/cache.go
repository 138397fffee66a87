package interfaces

import (
	"github.com/ternarybob/scribo/internal/models"
)

// CacheKeyParams are the inputs that derive a research cache key. Provider
// and MaxResults are mandatory: two runs with different search settings must
// never share an entry.
type CacheKeyParams struct {
	Topic       string
	UserContext *models.UserContext
	Provider    string
	MaxResults  int
}

// ResearchCache defines the interface for persisted research results.
//
// Cache trouble is never fatal: implementations log failures and report
// misses rather than returning errors, so a broken cache degrades to
// re-running research.
type ResearchCache interface {
	// Key derives the cache key for the given parameters
	Key(params CacheKeyParams) string

	// Exists reports whether a valid entry is present for key
	Exists(key string) bool

	// Load returns the cached result for key, or nil on miss or any
	// read/decode failure
	Load(key string) *models.ResearchResult

	// Save persists result under key, best effort
	Save(key string, result *models.ResearchResult, params CacheKeyParams)

	// Invalidate removes the entry for key if present
	Invalidate(key string)

	// Clear removes all cache entries
	Clear()
}
