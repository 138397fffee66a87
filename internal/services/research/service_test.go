package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

type stubGenerator struct {
	responses map[string]string
	fallback  string
	err       error
	prompts   []string
}

func (g *stubGenerator) Generate(_ context.Context, req *interfaces.GenerateRequest) (string, error) {
	g.prompts = append(g.prompts, req.Prompt)
	if g.err != nil {
		return "", g.err
	}
	for marker, response := range g.responses {
		if strings.Contains(req.Prompt, marker) {
			return response, nil
		}
	}
	return g.fallback, nil
}

func (g *stubGenerator) ProviderName() string { return "stub" }
func (g *stubGenerator) Close() error         { return nil }

type stubSearchProvider struct {
	results map[string][]models.SourceRecord
	errs    map[string]error
	queries []string
}

func (p *stubSearchProvider) Search(_ context.Context, query string, _ int) ([]models.SourceRecord, error) {
	p.queries = append(p.queries, query)
	if err, ok := p.errs[query]; ok {
		return nil, err
	}
	return p.results[query], nil
}

func (p *stubSearchProvider) Name() string { return "stub" }

func newTestService(gen *stubGenerator, search *stubSearchProvider) *Service {
	return NewService(gen, search, nil, nil, common.GetLogger())
}

func TestRunGeneratesAndExecutesQueries(t *testing.T) {
	gen := &stubGenerator{
		responses: map[string]string{
			"Generate 3-5 effective web search queries": "quantum computing basics\nquantum error correction\nquantum hardware vendors\nquantum algorithms\nquantum supremacy milestones",
		},
		fallback: "synthesized text",
	}
	search := &stubSearchProvider{
		results: map[string][]models.SourceRecord{
			"quantum computing basics":    {{Title: "A", URL: "https://a.example.com", Snippet: "sa"}},
			"quantum error correction":    {{Title: "B", URL: "https://b.example.com", Snippet: "sb"}},
			"quantum hardware vendors":    {{Title: "C", URL: "https://c.example.com", Snippet: "sc"}},
		},
	}

	svc := newTestService(gen, search)
	result, err := svc.Run(context.Background(), "quantum computing", nil, Options{MaxResults: 10})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Queries) != 5 {
		t.Errorf("expected 5 generated queries, got %d", len(result.Queries))
	}
	if len(search.queries) != 3 {
		t.Errorf("expected only first 3 queries executed, got %d", len(search.queries))
	}
	if len(result.Sources) != 3 {
		t.Errorf("expected 3 sources, got %d", len(result.Sources))
	}
	if result.Findings != "synthesized text" {
		t.Errorf("unexpected findings: %q", result.Findings)
	}
	if result.FromCache {
		t.Error("fresh result should not be marked as cached")
	}
}

func TestQueryParsingDropsListMarkers(t *testing.T) {
	gen := &stubGenerator{
		responses: map[string]string{
			"Generate 3-5 effective web search queries": "1. numbered query\n- bulleted query\n* starred query\nclean query one\n\nclean query two",
		},
		fallback: "ok",
	}
	search := &stubSearchProvider{}

	svc := newTestService(gen, search)
	queries := svc.generateSearchQueries(context.Background(), "topic", nil)

	if len(queries) != 2 {
		t.Fatalf("expected 2 queries after filtering, got %d: %v", len(queries), queries)
	}
	if queries[0] != "clean query one" || queries[1] != "clean query two" {
		t.Errorf("unexpected queries: %v", queries)
	}
}

func TestQueryGenerationFallsBackToTopic(t *testing.T) {
	gen := &stubGenerator{err: errors.New("llm down")}
	search := &stubSearchProvider{}

	svc := newTestService(gen, search)
	queries := svc.generateSearchQueries(context.Background(), "machine learning", nil)

	if len(queries) != 1 || queries[0] != "machine learning" {
		t.Errorf("expected topic fallback, got %v", queries)
	}
}

func TestRunDeduplicatesByURL(t *testing.T) {
	gen := &stubGenerator{
		responses: map[string]string{
			"Generate 3-5 effective web search queries": "query one\nquery two",
		},
		fallback: "ok",
	}
	search := &stubSearchProvider{
		results: map[string][]models.SourceRecord{
			"query one": {
				{Title: "First", URL: "https://example.com/page", Snippet: "first"},
				{Title: "Other", URL: "https://other.example.com", Snippet: "other"},
			},
			"query two": {
				{Title: "Duplicate", URL: "https://EXAMPLE.com/page/", Snippet: "dup"},
			},
		},
	}

	svc := newTestService(gen, search)
	result, err := svc.Run(context.Background(), "topic", nil, Options{MaxResults: 10})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 unique sources, got %d", len(result.Sources))
	}
	if result.Sources[0].Title != "First" {
		t.Errorf("first occurrence should win, got %q", result.Sources[0].Title)
	}
}

func TestRunTruncatesToMaxResults(t *testing.T) {
	gen := &stubGenerator{
		responses: map[string]string{
			"Generate 3-5 effective web search queries": "only query",
		},
		fallback: "ok",
	}
	search := &stubSearchProvider{
		results: map[string][]models.SourceRecord{
			"only query": {
				{Title: "A", URL: "https://a.example.com"},
				{Title: "B", URL: "https://b.example.com"},
				{Title: "C", URL: "https://c.example.com"},
			},
		},
	}

	svc := newTestService(gen, search)
	result, err := svc.Run(context.Background(), "topic", nil, Options{MaxResults: 2})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Sources) != 2 {
		t.Errorf("expected truncation to 2 sources, got %d", len(result.Sources))
	}
}

func TestRunSkipsFailedQueries(t *testing.T) {
	gen := &stubGenerator{
		responses: map[string]string{
			"Generate 3-5 effective web search queries": "failing query\nworking query",
		},
		fallback: "ok",
	}
	search := &stubSearchProvider{
		errs: map[string]error{
			"failing query": errors.New("provider timeout"),
		},
		results: map[string][]models.SourceRecord{
			"working query": {{Title: "A", URL: "https://a.example.com"}},
		},
	}

	svc := newTestService(gen, search)
	result, err := svc.Run(context.Background(), "topic", nil, Options{MaxResults: 10})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Sources) != 1 {
		t.Errorf("expected 1 source from the working query, got %d", len(result.Sources))
	}
}

func TestRunZeroSourcesFallback(t *testing.T) {
	gen := &stubGenerator{
		responses: map[string]string{
			"Generate 3-5 effective web search queries": "query with no hits",
		},
		fallback: "should not be used",
	}
	search := &stubSearchProvider{}

	svc := newTestService(gen, search)
	result, err := svc.Run(context.Background(), "obscure topic", nil, Options{MaxResults: 10})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Findings != "No relevant information found." {
		t.Errorf("unexpected findings fallback: %q", result.Findings)
	}
	if result.Context != "Limited information available about: obscure topic" {
		t.Errorf("unexpected context fallback: %q", result.Context)
	}
}

func TestRunZeroSourcesUsesUserContext(t *testing.T) {
	gen := &stubGenerator{
		responses: map[string]string{
			"Generate 3-5 effective web search queries": "query with no hits",
		},
	}
	search := &stubSearchProvider{}
	userContext := &models.UserContext{
		NovelAspect:       "novel compression scheme",
		TechnologyDetails: "custom entropy coder",
	}

	svc := newTestService(gen, search)
	result, err := svc.Run(context.Background(), "topic", userContext, Options{MaxResults: 10})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Findings != "novel compression scheme" {
		t.Errorf("expected novel aspect as findings, got %q", result.Findings)
	}
	if result.Context != "custom entropy coder" {
		t.Errorf("expected technology details as context, got %q", result.Context)
	}
}

func TestSynthesisFallbackJoinsSnippets(t *testing.T) {
	gen := &stubGenerator{err: errors.New("llm down")}
	svc := newTestService(gen, &stubSearchProvider{})

	sources := []models.SourceRecord{
		{Title: "A", URL: "https://a.example.com", Snippet: "alpha"},
		{Title: "B", URL: "https://b.example.com", Snippet: "beta"},
	}
	findings := svc.synthesizeFindings(context.Background(), "topic", sources, nil)
	if findings != "alpha\n\nbeta" {
		t.Errorf("unexpected fallback findings: %q", findings)
	}

	contextText := svc.extractContext(context.Background(), "topic", sources, nil)
	if contextText != "Context about topic based on available sources." {
		t.Errorf("unexpected fallback context: %q", contextText)
	}
}

func TestFormatSourcesForPrompt(t *testing.T) {
	sources := []models.SourceRecord{
		{Title: "Paper", URL: "https://example.com/paper", Snippet: strings.Repeat("x", 400)},
	}
	text := FormatSourcesForPrompt(sources)

	if !strings.HasPrefix(text, "Research Sources:") {
		t.Errorf("missing header: %q", text)
	}
	if !strings.Contains(text, "1. **Paper**") {
		t.Errorf("missing numbered title: %q", text)
	}
	if !strings.Contains(text, "URL: https://example.com/paper") {
		t.Errorf("missing URL line: %q", text)
	}
	if !strings.Contains(text, strings.Repeat("x", 300)+"...") {
		t.Error("snippet should be truncated to 300 chars with ellipsis")
	}
	if strings.Contains(text, strings.Repeat("x", 301)) {
		t.Error("snippet longer than 300 chars leaked into prompt")
	}

	if FormatSourcesForPrompt(nil) != "No search results available." {
		t.Error("empty sources should produce placeholder text")
	}
}
