package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/models"
	"golang.org/x/time/rate"
)

// ExaService searches the web through the Exa API. Requests use the
// search-with-contents endpoint so snippets come with extracted page text.
type ExaService struct {
	config     *common.SearchConfig
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

type exaRequest struct {
	Query          string          `json:"query"`
	NumResults     int             `json:"numResults"`
	IncludeDomains []string        `json:"includeDomains,omitempty"`
	Contents       exaContentsSpec `json:"contents"`
}

type exaContentsSpec struct {
	Text exaTextSpec `json:"text"`
}

type exaTextSpec struct {
	MaxCharacters int `json:"maxCharacters"`
}

type exaResponse struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Text  string `json:"text"`
	} `json:"results"`
}

// NewExaService creates an Exa search provider
func NewExaService(config *common.SearchConfig, apiKey string, logger arbor.ILogger) *ExaService {
	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ExaService{
		config:     config,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		logger:     logger,
	}
}

// Name returns the provider identifier
func (s *ExaService) Name() string {
	return "exa"
}

// Search executes one query against Exa
func (s *ExaService) Search(ctx context.Context, query string, maxResults int) ([]models.SourceRecord, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	numResults := maxResults
	if s.config.MaxResults > 0 && numResults > s.config.MaxResults {
		numResults = s.config.MaxResults
	}

	reqBody := exaRequest{
		Query:          query,
		NumResults:     numResults,
		IncludeDomains: s.config.IncludeDomains,
		Contents: exaContentsSpec{
			Text: exaTextSpec{MaxCharacters: 1000},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("failed to encode request: %w", err))
	}

	url := strings.TrimSuffix(s.config.Exa.BaseURL, "/") + "/search"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("failed to build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", s.apiKey)

	s.logger.Info().Str("query", truncateQuery(query)).Msg("Searching with Exa")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, truncateQuery(string(data))))
	}

	var parsed exaResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("failed to decode response: %w", err))
	}

	records := make([]models.SourceRecord, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		records = append(records, models.SourceRecord{
			Title:   title,
			URL:     r.URL,
			Snippet: snippetFromText(r.Text),
			Text:    r.Text,
		})
	}

	s.logger.Debug().Int("results", len(records)).Msg("Exa search complete")
	return records, nil
}

// snippetFromText takes the leading portion of extracted text as a snippet
func snippetFromText(text string) string {
	const limit = 300
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit]
}

func truncateQuery(q string) string {
	const limit = 50
	if len(q) > limit {
		return q[:limit] + "..."
	}
	return q
}
