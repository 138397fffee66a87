package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// CacheVersion stamps every entry. Bump it when research output changes
// shape; a version mismatch is the only invalidation mechanism (no TTL).
const CacheVersion = "1.0"

const (
	researchFileName = "research.json"
	metadataFileName = "metadata.json"
)

// Metadata describes one cache entry
type Metadata struct {
	Version         string `json:"version"`
	Topic           string `json:"topic"`
	UserContextHash string `json:"user_context_hash"`
	SearchProvider  string `json:"search_provider"`
	MaxResults      int    `json:"max_results"`
	Timestamp       string `json:"timestamp"`
}

// Service is a file-based research cache. Entries live under
// <dir>/<key>/research.json with a metadata sidecar, human-readable on
// purpose. Every operation is non-raising: failures are logged and reported
// as misses. Concurrent runs are last-writer-wins; there is no locking.
type Service struct {
	dir    string
	logger arbor.ILogger
}

// NewService creates a research cache rooted at dir
func NewService(dir string, logger arbor.ILogger) *Service {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("Failed to create cache directory")
	}
	return &Service{dir: dir, logger: logger}
}

// Key derives the cache key for the given parameters. Topic is trimmed and
// lowercased before hashing; the user context is hashed from its canonical
// JSON form. Search provider and max results always participate, so runs
// with different search settings never collide.
func (s *Service) Key(params interfaces.CacheKeyParams) string {
	normalizedTopic := strings.ToLower(strings.TrimSpace(params.Topic))
	contextHash := hashUserContext(params.UserContext)

	components := []string{
		normalizedTopic,
		contextHash,
		params.Provider,
		strconv.Itoa(params.MaxResults),
	}

	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	cacheHash := hex.EncodeToString(sum[:])[:16]

	return cacheHash + "_" + sanitizeFilename(params.Topic, 30)
}

// Exists reports whether a valid entry is present for key
func (s *Service) Exists(key string) bool {
	researchFile := filepath.Join(s.dir, key, researchFileName)
	metadataFile := filepath.Join(s.dir, key, metadataFileName)

	if _, err := os.Stat(researchFile); err != nil {
		return false
	}

	data, err := os.ReadFile(metadataFile)
	if err != nil {
		return false
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Error checking cache metadata")
		return false
	}

	if meta.Version != CacheVersion {
		s.logger.Debug().
			Str("found", meta.Version).
			Str("expected", CacheVersion).
			Msg("Cache version mismatch")
		return false
	}

	return true
}

// Load returns the cached result for key, or nil on miss or decode failure
func (s *Service) Load(key string) *models.ResearchResult {
	if !s.Exists(key) {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, key, researchFileName))
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Error loading cache")
		return nil
	}

	var result models.ResearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Error decoding cached research")
		return nil
	}

	result.FromCache = true
	s.logger.Info().Str("key", key).Msg("Loaded research from cache")
	return &result
}

// Save persists result under key, best effort. A failed save only logs.
func (s *Service) Save(key string, result *models.ResearchResult, params interfaces.CacheKeyParams) {
	entryDir := filepath.Join(s.dir, key)
	if err := os.MkdirAll(entryDir, 0755); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to create cache entry directory")
		return
	}

	researchData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode research for cache")
		return
	}
	if err := os.WriteFile(filepath.Join(entryDir, researchFileName), researchData, 0644); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to write cached research")
		return
	}

	meta := Metadata{
		Version:         CacheVersion,
		Topic:           params.Topic,
		UserContextHash: hashUserContext(params.UserContext),
		SearchProvider:  params.Provider,
		MaxResults:      params.MaxResults,
		Timestamp:       time.Now().Format(time.RFC3339),
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode cache metadata")
		return
	}
	if err := os.WriteFile(filepath.Join(entryDir, metadataFileName), metaData, 0644); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to write cache metadata")
		return
	}

	s.logger.Debug().Str("key", key).Msg("Saved research to cache")
}

// Invalidate removes the entry for key if present
func (s *Service) Invalidate(key string) {
	entryDir := filepath.Join(s.dir, key)
	if _, err := os.Stat(entryDir); err != nil {
		return
	}
	if err := os.RemoveAll(entryDir); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to invalidate cache entry")
		return
	}
	s.logger.Info().Str("key", key).Msg("Invalidated cache entry")
}

// Clear removes all cache entries
func (s *Service) Clear() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn().Err(err).Str("dir", s.dir).Msg("Failed to read cache directory")
		return
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, entry.Name())); err != nil {
			s.logger.Warn().Err(err).Str("entry", entry.Name()).Msg("Failed to remove cache entry")
			continue
		}
		removed++
	}

	s.logger.Info().Int("entries", removed).Msg("Cleared research cache")
}

// hashUserContext returns the first 16 hex chars of the sha256 of the
// context's canonical JSON (sorted keys), or "" when the context is empty
func hashUserContext(userContext *models.UserContext) string {
	if userContext.IsEmpty() {
		return ""
	}

	// Maps marshal with sorted keys, which keeps the hash stable
	fields := map[string]string{
		"novel_aspect":       userContext.NovelAspect,
		"technology_details": userContext.TechnologyDetails,
		"problem_solved":     userContext.ProblemSolved,
		"use_cases":          userContext.UseCases,
		"confidential_info":  userContext.ConfidentialInfo,
		"additional_notes":   userContext.AdditionalNotes,
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

// sanitizeFilename keeps alphanumerics, dashes and underscores, maps spaces
// and everything else to underscores, truncated to maxLength
func sanitizeFilename(text string, maxLength int) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := b.String()
	if len(sanitized) > maxLength {
		sanitized = sanitized[:maxLength]
	}
	return sanitized
}
