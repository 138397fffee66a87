package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/models"
)

func newTestFetcher(t *testing.T, enabled bool) *Service {
	t.Helper()
	config := &common.FetcherConfig{
		Enabled:        enabled,
		TopN:           2,
		RequestTimeout: "5s",
		MaxBodySize:    1024 * 1024,
		UserAgent:      "scribo-test",
	}
	return NewService(config, arbor.NewLogger())
}

func TestEnrichSources_Disabled(t *testing.T) {
	svc := newTestFetcher(t, false)

	sources := []models.SourceRecord{{URL: "https://example.invalid/page"}}
	result := svc.EnrichSources(context.Background(), sources)

	if result[0].Text != "" {
		t.Error("disabled fetcher should not touch sources")
	}
}

func TestEnrichSources_FillsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><script>ignore()</script></head>
<body><nav>menu</nav><article><h1>Title</h1><p>Main content paragraph.</p></article><footer>foot</footer></body></html>`))
	}))
	defer server.Close()

	svc := newTestFetcher(t, true)

	sources := []models.SourceRecord{{Title: "Page", URL: server.URL}}
	result := svc.EnrichSources(context.Background(), sources)

	if result[0].Text == "" {
		t.Fatal("expected text to be filled")
	}
	if !strings.Contains(result[0].Text, "Main content paragraph.") {
		t.Errorf("text missing main content: %q", result[0].Text)
	}
	if strings.Contains(result[0].Text, "menu") || strings.Contains(result[0].Text, "ignore()") {
		t.Errorf("text should not contain navigation or script content: %q", result[0].Text)
	}
}

func TestEnrichSources_TopNLimit(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>Content.</p></body></html>"))
	}))
	defer server.Close()

	svc := newTestFetcher(t, true)

	sources := []models.SourceRecord{
		{URL: server.URL + "/1"},
		{URL: server.URL + "/2"},
		{URL: server.URL + "/3"},
	}
	result := svc.EnrichSources(context.Background(), sources)

	if hits != 2 {
		t.Errorf("fetched %d pages, want 2 (top_n)", hits)
	}
	if result[2].Text != "" {
		t.Error("source beyond top_n should stay untouched")
	}
}

func TestEnrichSources_FailuresAreSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	svc := newTestFetcher(t, true)

	sources := []models.SourceRecord{{URL: server.URL, Snippet: "still here"}}
	result := svc.EnrichSources(context.Background(), sources)

	if result[0].Text != "" {
		t.Error("failed fetch should leave text empty")
	}
	if result[0].Snippet != "still here" {
		t.Error("failed fetch must not clobber the record")
	}
}
