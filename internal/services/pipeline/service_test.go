package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/ternarybob/scribo/internal/services/agents"
	"github.com/ternarybob/scribo/internal/services/parser"
	"github.com/ternarybob/scribo/internal/services/research"
	"github.com/ternarybob/scribo/internal/services/templates"
)

// routedGenerator picks a canned response by prompt marker so one stub can
// serve every stage of a pipeline run
type routedGenerator struct {
	routes map[string]string
}

func (g *routedGenerator) Generate(_ context.Context, req *interfaces.GenerateRequest) (string, error) {
	for marker, response := range g.routes {
		if strings.Contains(req.Prompt, marker) {
			return response, nil
		}
	}
	return "", nil
}

func (g *routedGenerator) ProviderName() string { return "routed" }
func (g *routedGenerator) Close() error         { return nil }

type fixedSearchProvider struct {
	results []models.SourceRecord
}

func (p *fixedSearchProvider) Search(_ context.Context, _ string, _ int) ([]models.SourceRecord, error) {
	return p.results, nil
}

func (p *fixedSearchProvider) Name() string { return "fixed" }

const pipelineDraft = `<headline>Breaking Development</headline>

<section name="lead">
The development broke today.
</section>

<section name="context">
It follows months of work.
</section>

<section name="why_it_matters">
Readers should care a great deal.
</section>`

func defaultRoutes() map[string]string {
	return map[string]string{
		"Generate 3-5 effective web search queries":      "query one\nquery two",
		"synthesize the key findings":                    "synthesized findings",
		"provide broader context about this topic":       "broader context",
		"You are a professional writer":                  pipelineDraft,
		"You are an experienced editor reviewing":        pipelineDraft,
		"transforming AI-generated text":                 pipelineDraft,
		"formatting academic and journalistic citations": "## Sources\n\n1. [Src](https://example.com/src)\n   A description that is comfortably long enough to pass the plausibility check applied to formatted output.",
		"expert research analyst":                        "breaking development timeline",
	}
}

func newTestPipeline(t *testing.T, routes map[string]string, sources []models.SourceRecord) (*Service, *common.Config) {
	t.Helper()
	logger := common.GetLogger()

	config := common.NewDefaultConfig()
	config.Output.Directory = t.TempDir()
	config.Cache.Enabled = false
	config.Search.MaxResults = 5
	config.Humanizer.Passes = 1

	gen := &routedGenerator{routes: routes}
	sectionParser := parser.NewService(logger)

	templateSvc, err := templates.NewService(&config.Templates, logger)
	if err != nil {
		t.Fatalf("failed to build template service: %v", err)
	}

	researchSvc := research.NewService(gen, &fixedSearchProvider{results: sources}, nil, nil, logger)

	svc := NewService(config, Deps{
		Research:         researchSvc,
		Writer:           agents.NewWriter(gen, sectionParser, logger),
		Editor:           agents.NewEditor(gen, sectionParser, logger),
		Humanizer:        agents.NewHumanizer(gen, sectionParser, config.Humanizer.Enabled, config.Humanizer.Passes, config.Humanizer.Intensity, logger),
		SourcesFormatter: agents.NewSourcesFormatter(gen, logger),
		TopicExtractor:   agents.NewTopicExtractor(gen, logger),
		Templates:        templateSvc,
	}, logger)

	return svc, config
}

func TestGenerateFullRun(t *testing.T) {
	sources := []models.SourceRecord{
		{Title: "Src", URL: "https://example.com/src", Snippet: "snippet text"},
	}
	svc, config := newTestPipeline(t, defaultRoutes(), sources)

	article, err := svc.Generate(context.Background(), &models.GenerateRequest{
		Topic:     "breaking development",
		MediaType: "news_article",
		Length:    "medium",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if article.Headline != "Breaking Development" {
		t.Errorf("unexpected headline: %q", article.Headline)
	}
	if article.SourceCount != 1 {
		t.Errorf("expected 1 source, got %d", article.SourceCount)
	}
	if !strings.HasPrefix(article.ID, "art_") {
		t.Errorf("unexpected article ID: %q", article.ID)
	}

	data, err := os.ReadFile(article.FilePath)
	if err != nil {
		t.Fatalf("article file not written: %v", err)
	}
	document := string(data)

	if !strings.Contains(document, "media_type: news_article") {
		t.Error("metadata block missing media_type")
	}
	if !strings.Contains(document, "# Breaking Development") {
		t.Error("headline should render as H1")
	}
	if !strings.Contains(document, "## Sources") {
		t.Error("sources block missing from document")
	}
	if strings.Contains(document, "<section") {
		t.Error("XML tags leaked into the rendered document")
	}

	if dir := filepath.Dir(article.FilePath); dir != config.Output.Directory {
		t.Errorf("article written outside output directory: %s", dir)
	}
}

func TestGenerateValidation(t *testing.T) {
	svc, _ := newTestPipeline(t, defaultRoutes(), nil)

	tests := []struct {
		name string
		req  *models.GenerateRequest
	}{
		{"empty topic", &models.GenerateRequest{Topic: "  ", MediaType: "news_article", Length: "medium"}},
		{"short topic", &models.GenerateRequest{Topic: "ab", MediaType: "news_article", Length: "medium"}},
		{"unknown media type", &models.GenerateRequest{Topic: "valid topic", MediaType: "radio_jingle", Length: "medium"}},
		{"bad length", &models.GenerateRequest{Topic: "valid topic", MediaType: "news_article", Length: "gigantic"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !common.IsValidationError(err) {
				t.Errorf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestGenerateDefaultsFromConfig(t *testing.T) {
	svc, config := newTestPipeline(t, defaultRoutes(), []models.SourceRecord{
		{Title: "Src", URL: "https://example.com/src"},
	})
	config.Article.MediaType = "news_article"
	config.Article.Length = "short"

	article, err := svc.Generate(context.Background(), &models.GenerateRequest{Topic: "some topic"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if article.MediaType != "news_article" || article.Length != "short" {
		t.Errorf("config defaults not applied: %s/%s", article.MediaType, article.Length)
	}
}

func TestGenerateStripsSourcesSection(t *testing.T) {
	routes := defaultRoutes()
	routes["transforming AI-generated text"] = pipelineDraft + `

<section name="sources">
1. [Hallucinated](https://bogus.example.com)
</section>`

	svc, _ := newTestPipeline(t, routes, []models.SourceRecord{
		{Title: "Real Source", URL: "https://example.com/real"},
	})

	article, err := svc.Generate(context.Background(), &models.GenerateRequest{
		Topic: "some topic", MediaType: "news_article", Length: "medium",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if strings.Contains(article.Markdown, "bogus.example.com") {
		t.Error("generated sources prose should be stripped before rendering")
	}
	if _, ok := article.Sections["sources"]; ok {
		t.Error("sources key should be removed from the section map")
	}
}

func TestFindSourcesWritesFile(t *testing.T) {
	svc, _ := newTestPipeline(t, defaultRoutes(), []models.SourceRecord{
		{Title: "Src", URL: "https://example.com/src", Snippet: "snippet"},
	})

	dir := t.TempDir()
	articlePath := filepath.Join(dir, "my-article.md")
	if err := os.WriteFile(articlePath, []byte("# My Article\n\nBody text about things.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	outputPath, err := svc.FindSources(context.Background(), articlePath, "")
	if err != nil {
		t.Fatalf("FindSources returned error: %v", err)
	}

	if filepath.Base(outputPath) != "my-article-sources.md" {
		t.Errorf("unexpected output filename: %s", outputPath)
	}
	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("sources file not written: %v", err)
	}
	if !strings.Contains(string(data), "## Sources") {
		t.Errorf("sources file missing header: %q", string(data))
	}
}

func TestFindSourcesRejectsMissingFile(t *testing.T) {
	svc, _ := newTestPipeline(t, defaultRoutes(), nil)

	if _, err := svc.FindSources(context.Background(), filepath.Join(t.TempDir(), "nope.md"), ""); err == nil {
		t.Fatal("expected error for missing article file")
	}
}

func TestFindSourcesRejectsEmptyFile(t *testing.T) {
	svc, _ := newTestPipeline(t, defaultRoutes(), nil)

	path := filepath.Join(t.TempDir(), "empty.md")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FindSources(context.Background(), path, ""); err == nil {
		t.Fatal("expected error for empty article file")
	}
}
