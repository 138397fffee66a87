package parser

import (
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(arbor.NewLogger())
}

func sectionValue(t *testing.T, m *models.SectionMap, name string) string {
	t.Helper()
	v, ok := m.Get(name)
	if !ok {
		t.Fatalf("expected section %q to be present, keys=%v", name, m.Keys())
	}
	return v
}

func TestParseSections_XMLFormat(t *testing.T) {
	svc := newTestService(t)
	names := []string{"headline", "lead", "context", "why_it_matters"}

	text := `<headline>Big News Today</headline>
<section name="lead">The lead paragraph.</section>
<section name="context">Some background.</section>
<section name="why_it_matters">It matters a lot.</section>`

	result := svc.ParseSections(text, names, nil)

	if got := sectionValue(t, result, "headline"); got != "Big News Today" {
		t.Errorf("headline = %q", got)
	}
	if got := sectionValue(t, result, "lead"); got != "The lead paragraph." {
		t.Errorf("lead = %q", got)
	}
	if got := sectionValue(t, result, "why_it_matters"); got != "It matters a lot." {
		t.Errorf("why_it_matters = %q", got)
	}
}

func TestParseSections_TitlePreferredOverHeadline(t *testing.T) {
	svc := newTestService(t)

	text := `<title>A Title</title>
<section name="lead">Lead text.</section>`

	result := svc.ParseSections(text, []string{"title", "headline", "lead"}, nil)

	if got := sectionValue(t, result, "title"); got != "A Title" {
		t.Errorf("title = %q", got)
	}
	if result.Has("headline") {
		t.Error("headline should not be set when template has title")
	}
}

func TestParseSections_NameResolution(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name        string
		tagName     string
		known       []string
		extra       []string
		expectedKey string
	}{
		{
			name:        "exact match",
			tagName:     "lead",
			known:       []string{"lead", "context"},
			expectedKey: "lead",
		},
		{
			name:        "case and space normalization",
			tagName:     "Why It Matters",
			known:       []string{"why_it_matters"},
			expectedKey: "why_it_matters",
		},
		{
			name:        "known name contained in tag",
			tagName:     "the_lead_section",
			known:       []string{"lead"},
			expectedKey: "lead",
		},
		{
			name:        "tag contained in known name",
			tagName:     "matters",
			known:       []string{"why_it_matters"},
			expectedKey: "why_it_matters",
		},
		{
			name:        "falls back to extra names",
			tagName:     "background",
			known:       []string{"lead"},
			extra:       []string{"background"},
			expectedKey: "background",
		},
		{
			name:        "unmatched keeps literal normalized key",
			tagName:     "Totally Novel",
			known:       []string{"lead"},
			expectedKey: "totally_novel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := `<section name="` + tt.tagName + `">Content here.</section>`
			result := svc.ParseSections(text, tt.known, tt.extra)

			if got := sectionValue(t, result, tt.expectedKey); got != "Content here." {
				t.Errorf("content = %q", got)
			}
		})
	}
}

func TestParseSections_EmptyContentDropped(t *testing.T) {
	svc := newTestService(t)

	text := `<section name="lead">Real content.</section>
<section name="context">   </section>`

	result := svc.ParseSections(text, []string{"lead", "context"}, nil)

	if result.Has("context") {
		t.Error("empty section should be dropped")
	}
	if !result.Has("lead") {
		t.Error("lead should be present")
	}
}

func TestParseSections_HeadlineSalvage(t *testing.T) {
	svc := newTestService(t)

	text := `HEADLINE: Salvaged Headline
## Lead
The lead content.`

	result := svc.ParseSections(text, []string{"headline", "lead"}, nil)

	if got := sectionValue(t, result, "headline"); got != "Salvaged Headline" {
		t.Errorf("headline = %q", got)
	}
	if got := sectionValue(t, result, "lead"); got != "The lead content." {
		t.Errorf("lead = %q", got)
	}
}

func TestParseSections_LegacyDelimiter(t *testing.T) {
	svc := newTestService(t)

	text := `Intro before any marker.
---SECTION: lead---
Lead body.
---SECTION: context---
Context body.`

	result := svc.ParseSections(text, []string{"opening", "lead", "context"}, nil)

	if got := sectionValue(t, result, "opening"); got != "Intro before any marker." {
		t.Errorf("opening = %q", got)
	}
	if got := sectionValue(t, result, "lead"); got != "Lead body." {
		t.Errorf("lead = %q", got)
	}
	if got := sectionValue(t, result, "context"); got != "Context body." {
		t.Errorf("context = %q", got)
	}
}

func TestParseSections_LegacyDelimiterPreTextFallsToLead(t *testing.T) {
	svc := newTestService(t)

	text := `Before text.
---SECTION: context---
Context body.`

	result := svc.ParseSections(text, []string{"lead", "context"}, nil)

	if got := sectionValue(t, result, "lead"); got != "Before text." {
		t.Errorf("lead = %q", got)
	}
}

func TestParseSections_MarkdownHeaders(t *testing.T) {
	svc := newTestService(t)

	text := `# The Headline
## Lead
First paragraph.
Second paragraph.
## Context
Background text.`

	result := svc.ParseSections(text, []string{"headline", "lead", "context"}, nil)

	if got := sectionValue(t, result, "headline"); got != "The Headline" {
		t.Errorf("headline = %q", got)
	}
	if got := sectionValue(t, result, "lead"); got != "First paragraph.\nSecond paragraph." {
		t.Errorf("lead = %q", got)
	}
	if got := sectionValue(t, result, "context"); got != "Background text." {
		t.Errorf("context = %q", got)
	}
}

func TestParseSections_TotalFailureReturnsEmptyMap(t *testing.T) {
	svc := newTestService(t)

	result := svc.ParseSections("", []string{"lead"}, nil)
	if result == nil {
		t.Fatal("result should never be nil")
	}
	if result.Len() != 0 {
		t.Errorf("expected empty map, got keys %v", result.Keys())
	}
}

func TestParseSections_OrderPreserved(t *testing.T) {
	svc := newTestService(t)

	text := `<section name="context">C.</section>
<section name="lead">L.</section>`

	result := svc.ParseSections(text, []string{"lead", "context"}, nil)

	keys := result.Keys()
	if len(keys) != 2 || keys[0] != "context" || keys[1] != "lead" {
		t.Errorf("keys = %v, want [context lead]", keys)
	}
}

func TestValidateStructure(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name        string
		text        string
		required    []string
		wantValid   bool
		wantMissing int
	}{
		{
			name:      "all present",
			text:      `<headline>H</headline><section name="lead">L</section>`,
			required:  []string{"headline", "lead"},
			wantValid: true,
		},
		{
			name:        "missing section",
			text:        `<section name="lead">L</section>`,
			required:    []string{"lead", "context"},
			wantValid:   false,
			wantMissing: 1,
		},
		{
			name:      "headline tag satisfies title",
			text:      `<headline>H</headline>`,
			required:  []string{"title"},
			wantValid: true,
		},
		{
			name:        "empty text",
			text:        "",
			required:    []string{"lead"},
			wantValid:   false,
			wantMissing: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, missing := svc.ValidateStructure(tt.text, tt.required)
			if valid != tt.wantValid {
				t.Errorf("valid = %v, want %v", valid, tt.wantValid)
			}
			if len(missing) != tt.wantMissing {
				t.Errorf("missing = %v, want %d entries", missing, tt.wantMissing)
			}
		})
	}
}

func TestExtractHeadline(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"xml tag", "<headline>From Tag</headline>\nBody", "From Tag"},
		{"title tag", "<title>From Title</title>", "From Title"},
		{"headline prefix", "HEADLINE: Prefixed\nBody text", "Prefixed"},
		{"none", "Just plain text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractHeadline(tt.text); got != tt.want {
				t.Errorf("ExtractHeadline() = %q, want %q", got, tt.want)
			}
		})
	}
}
