package pipeline

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/scribo/internal/models"
)

func testTemplate() *models.MediaTemplate {
	return &models.MediaTemplate{
		Name:        "news_article",
		DisplayName: "News Article",
		Sections: []models.SectionSpec{
			{Name: "headline", Required: true},
			{Name: "lead", Required: true},
			{Name: "context", Required: true},
			{Name: "why_it_matters", Required: true},
			{Name: "conclusion", Required: false},
		},
	}
}

func TestRenderArticleMetadataAndHeadline(t *testing.T) {
	sections := models.NewSectionMap()
	sections.Set("headline", "The Big Story")
	sections.Set("lead", "It begins here.")

	doc := RenderArticle(sections, testTemplate(), "big story")

	if !strings.HasPrefix(doc, "---\ntitle: The Big Story\n") {
		t.Errorf("metadata block should lead with the headline as title: %q", doc)
	}
	if !strings.Contains(doc, fmt.Sprintf("date: %s", time.Now().Format("2006-01-02"))) {
		t.Error("metadata block missing today's date")
	}
	if !strings.Contains(doc, "media_type: news_article") {
		t.Error("metadata block missing media_type")
	}
	if !strings.Contains(doc, "topic: big story") {
		t.Error("metadata block missing topic")
	}
	if !strings.Contains(doc, "# The Big Story") {
		t.Error("headline should render as H1")
	}
}

func TestRenderArticleFallsBackToTopicTitle(t *testing.T) {
	sections := models.NewSectionMap()
	sections.Set("lead", "No headline was produced.")

	doc := RenderArticle(sections, testTemplate(), "the topic")

	if !strings.Contains(doc, "title: the topic") {
		t.Error("title should fall back to topic when no headline exists")
	}
	if strings.Contains(doc, "# ") {
		t.Error("no H1 should render without a headline")
	}
}

func TestRenderArticleSectionsInTemplateOrder(t *testing.T) {
	sections := models.NewSectionMap()
	sections.Set("why_it_matters", "Third paragraph.")
	sections.Set("lead", "First paragraph.")
	sections.Set("context", "Second paragraph.")

	doc := RenderArticle(sections, testTemplate(), "topic")

	first := strings.Index(doc, "First paragraph.")
	second := strings.Index(doc, "Second paragraph.")
	third := strings.Index(doc, "Third paragraph.")
	if !(first < second && second < third) {
		t.Errorf("sections out of template order: %q", doc)
	}
	if strings.Contains(doc, "## ") {
		t.Error("no headers should separate section bodies")
	}
}

func TestRenderArticleSkipsPlaceholdersAndEmpties(t *testing.T) {
	sections := models.NewSectionMap()
	sections.Set("lead", "Real content.")
	sections.Set("context", "[Description of the context section]")
	sections.Set("why_it_matters", "   ")
	sections.Set("sources", "1. something")

	doc := RenderArticle(sections, testTemplate(), "topic")

	if strings.Contains(doc, "[Description") {
		t.Error("placeholder content should be dropped")
	}
	if strings.Contains(doc, "something") {
		t.Error("sources section must not render in the body")
	}
	if !strings.Contains(doc, "Real content.") {
		t.Error("real content missing")
	}
}

func TestGenerateFilename(t *testing.T) {
	got := GenerateFilename("{date}-{topic}-{media_type}.md", "Quantum Computing: A Review!", "news_article")

	date := time.Now().Format("20060102")
	want := fmt.Sprintf("%s-quantum_computing__a_review_-news_article.md", date)
	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestGenerateFilenameTruncatesTopic(t *testing.T) {
	long := strings.Repeat("abcde ", 20)
	got := GenerateFilename("{topic}.md", long, "news_article")
	if len(got) > 53 {
		t.Errorf("topic should be capped at 50 chars, filename %q has %d", got, len(got))
	}
}
