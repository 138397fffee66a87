package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/models"
)

func TestFormatSourcesUsesLLMOutput(t *testing.T) {
	llmOutput := `Here are your formatted sources:

## Sources

1. [Clean Title](https://example.com/paper)
   A well written fifty word description of the source that easily clears the minimum length check.
`
	gen := &scriptedGenerator{responses: []string{llmOutput}}
	formatter := NewSourcesFormatter(gen, common.GetLogger())

	result := formatter.FormatSources(context.Background(), []models.SourceRecord{
		{Title: "Raw Title", URL: "https://example.com/paper", Snippet: "snippet"},
	})

	if !strings.HasPrefix(result, "## Sources") {
		t.Errorf("preamble should be stripped, got %q", result)
	}
	if strings.Contains(result, "Here are your formatted sources") {
		t.Error("LLM preamble leaked into the sources block")
	}
}

func TestFormatSourcesShortOutputTriggersFallback(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"## Sources"}}
	formatter := NewSourcesFormatter(gen, common.GetLogger())

	result := formatter.FormatSources(context.Background(), []models.SourceRecord{
		{Title: "Paper One", URL: "https://example.com/one"},
	})

	if !strings.Contains(result, "[Paper One](https://example.com/one)") {
		t.Errorf("expected fallback formatting, got %q", result)
	}
}

func TestFormatSourcesLLMFailureTriggersFallback(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{""}}
	formatter := NewSourcesFormatter(gen, common.GetLogger())

	result := formatter.FormatSources(context.Background(), []models.SourceRecord{
		{Title: "Paper One", URL: "https://example.com/one"},
	})

	if !strings.HasPrefix(result, "## Sources") {
		t.Errorf("expected fallback sources block, got %q", result)
	}
}

func TestFormatSourcesEmptyList(t *testing.T) {
	gen := &scriptedGenerator{}
	formatter := NewSourcesFormatter(gen, common.GetLogger())

	if result := formatter.FormatSources(context.Background(), nil); result != "" {
		t.Errorf("empty source list should yield empty string, got %q", result)
	}
	if gen.calls != 0 {
		t.Error("no generation call expected for empty sources")
	}
}

func TestFallbackFormatSources(t *testing.T) {
	sources := []models.SourceRecord{
		{Title: "Full article: A Study of Things", URL: "https://example.com/study", Snippet: "A meaningful description of the study that is long enough to keep."},
		{Title: "Duplicate", URL: "https://EXAMPLE.com/study/"},
		{Title: "Second Paper", URL: "https://other.example.com/paper"},
	}

	result := FallbackFormatSources(sources)

	if !strings.Contains(result, "1. [A Study of Things](https://example.com/study)") {
		t.Errorf("title prefix should be stripped: %q", result)
	}
	if strings.Contains(result, "Duplicate") {
		t.Error("duplicate URL should be removed")
	}
	if !strings.Contains(result, "2. [Second Paper]") {
		t.Errorf("second unique source should be numbered 2: %q", result)
	}
	if !strings.Contains(result, "   A meaningful description") {
		t.Error("snippet should be indented under its source")
	}
}

func TestCleanSourceSnippet(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		want    string
	}{
		{
			name:    "strips html tags",
			snippet: "<b>Bold claim</b> on the future of computing systems.",
			want:    "Bold claim on the future of computing systems.",
		},
		{
			name:    "drops navigation lines",
			snippet: "Skip to main content\nThe sensor network halved power draw in field trials.",
			want:    "The sensor network halved power draw in field trials.",
		},
		{
			name:    "drops short lines",
			snippet: "tiny\nThe compiler change cut build times noticeably across large projects.",
			want:    "The compiler change cut build times noticeably across large projects.",
		},
		{
			name:    "empty",
			snippet: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanSourceSnippet(tt.snippet); got != tt.want {
				t.Errorf("CleanSourceSnippet() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanSourceSnippetTruncates(t *testing.T) {
	long := strings.Repeat("word ", 100) + "ending sentence completes here."
	got := CleanSourceSnippet(long)
	if len(got) > 251 {
		t.Errorf("snippet should be truncated to about 250 chars, got %d", len(got))
	}
}

func TestCleanSourceTitle(t *testing.T) {
	if got := cleanSourceTitle("Paper: The Real Title"); got != "The Real Title" {
		t.Errorf("prefix should be stripped, got %q", got)
	}
	long := strings.Repeat("word ", 40)
	if got := cleanSourceTitle(long); len(got) > 121 {
		t.Errorf("long title should be truncated, got %d chars", len(got))
	}
	if got := cleanSourceTitle(""); got != "Untitled" {
		t.Errorf("empty title should become Untitled, got %q", got)
	}
}
