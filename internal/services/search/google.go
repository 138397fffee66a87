package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/models"
	"golang.org/x/time/rate"
)

const googleSearchEndpoint = "https://www.googleapis.com/customsearch/v1"

// googleMaxPerRequest is the Custom Search API ceiling per request
const googleMaxPerRequest = 10

// GoogleService searches the web through the Google Custom Search JSON API
type GoogleService struct {
	config     *common.SearchConfig
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGoogleService creates a Google Custom Search provider
func NewGoogleService(config *common.SearchConfig, apiKey string, logger arbor.ILogger) *GoogleService {
	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GoogleService{
		config:     config,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		logger:     logger,
	}
}

// Name returns the provider identifier
func (s *GoogleService) Name() string {
	return "google"
}

// Search executes one query against Google Custom Search
func (s *GoogleService) Search(ctx context.Context, query string, maxResults int) ([]models.SourceRecord, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	numResults := maxResults
	if s.config.MaxResults > 0 && numResults > s.config.MaxResults {
		numResults = s.config.MaxResults
	}
	if numResults > googleMaxPerRequest {
		numResults = googleMaxPerRequest
	}

	// Domain restriction goes into the query itself
	searchQuery := query
	if len(s.config.IncludeDomains) > 0 {
		sites := make([]string, 0, len(s.config.IncludeDomains))
		for _, domain := range s.config.IncludeDomains {
			sites = append(sites, "site:"+domain)
		}
		searchQuery = fmt.Sprintf("%s (%s)", query, strings.Join(sites, " OR "))
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("cx", s.config.Google.EngineID)
	params.Set("q", searchQuery)
	params.Set("num", strconv.Itoa(numResults))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, googleSearchEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("failed to build request: %w", err))
	}

	s.logger.Info().Str("query", truncateQuery(query)).Msg("Searching with Google")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("failed to read response: %w", err))
	}

	var parsed googleResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("failed to decode response: %w", err))
	}

	if parsed.Error != nil {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("API error %d: %s", parsed.Error.Code, parsed.Error.Message))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, common.NewSearchProviderError(s.Name(), fmt.Errorf("status %d", resp.StatusCode))
	}

	records := make([]models.SourceRecord, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title := item.Title
		if title == "" {
			title = "No title"
		}
		records = append(records, models.SourceRecord{
			Title:   title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}

	s.logger.Debug().Int("results", len(records)).Msg("Google search complete")
	return records, nil
}
