package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/models"
)

// Service fetches source pages and fills SourceRecord.Text with readable
// markdown, giving the synthesis step full articles instead of snippets.
// Fetch failures are logged and skipped; enrichment never fails a run.
type Service struct {
	config     *common.FetcherConfig
	httpClient *http.Client
	converter  *md.Converter
	logger     arbor.ILogger
}

// NewService creates a source page fetcher
func NewService(config *common.FetcherConfig, logger arbor.ILogger) *Service {
	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil || timeout <= 0 {
		timeout = 20 * time.Second
	}

	converter := md.NewConverter("", true, nil)

	return &Service{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		converter:  converter,
		logger:     logger,
	}
}

// EnrichSources fetches the top N sources that have no text yet. The input
// slice is returned with Text filled where fetching succeeded.
func (s *Service) EnrichSources(ctx context.Context, sources []models.SourceRecord) []models.SourceRecord {
	if !s.config.Enabled {
		return sources
	}

	topN := s.config.TopN
	if topN <= 0 {
		topN = 3
	}

	enriched := 0
	for i := range sources {
		if enriched >= topN {
			break
		}
		if sources[i].Text != "" || sources[i].URL == "" {
			continue
		}

		text, err := s.fetchText(ctx, sources[i].URL)
		if err != nil {
			s.logger.Warn().
				Str("url", sources[i].URL).
				Err(err).
				Msg("Failed to fetch source page")
			continue
		}

		sources[i].Text = text
		enriched++
	}

	if enriched > 0 {
		s.logger.Debug().Int("enriched", enriched).Msg("Enriched sources with page text")
	}

	return sources
}

// fetchText downloads a page and extracts its main content as markdown
func (s *Service) fetchText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") {
		return "", fmt.Errorf("unsupported content type %s", contentType)
	}

	var body io.Reader = resp.Body
	if s.config.MaxBodySize > 0 {
		body = io.LimitReader(resp.Body, int64(s.config.MaxBodySize))
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Strip chrome before conversion
	doc.Find("script, style, nav, header, footer, aside, iframe, form").Remove()

	// Prefer semantic content containers over the whole body
	content := doc.Find("article")
	if content.Length() == 0 {
		content = doc.Find("main")
	}
	if content.Length() == 0 {
		content = doc.Find("body")
	}
	if content.Length() == 0 {
		return "", fmt.Errorf("no content found")
	}

	html, err := goquery.OuterHtml(content.First())
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	markdown, err := s.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert to markdown: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", fmt.Errorf("empty content after conversion")
	}

	return markdown, nil
}
