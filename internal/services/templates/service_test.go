package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
)

func TestDefaultsAvailable(t *testing.T) {
	svc, err := NewService(nil, arbor.NewLogger())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"news_article", "blog_post", "press_release", "linkedin_article"} {
		tmpl, err := svc.Get(name)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", name, err)
		}
		if len(tmpl.Sections) == 0 {
			t.Errorf("%s has no sections", name)
		}
		if len(tmpl.RequiredSectionNames()) == 0 {
			t.Errorf("%s has no required sections", name)
		}
	}
}

func TestGet_UnknownMediaType(t *testing.T) {
	svc, err := NewService(nil, arbor.NewLogger())
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Get("podcast")
	if err == nil {
		t.Fatal("expected error for unknown media type")
	}
	if !common.IsConfigurationError(err) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestLoadDir_TOMLOverride(t *testing.T) {
	dir := t.TempDir()
	override := `name = "news_article"
display_name = "Short News"

[[sections]]
name = "headline"
description = "Headline"
required = true

[[sections]]
name = "lead"
description = "Lead"
required = true

[tone]
voice = "terse"
style = "wire service"
audience = "editors"
`
	if err := os.WriteFile(filepath.Join(dir, "news.toml"), []byte(override), 0644); err != nil {
		t.Fatal(err)
	}

	svc, err := NewService(&common.TemplatesConfig{Dir: dir}, arbor.NewLogger())
	if err != nil {
		t.Fatal(err)
	}

	tmpl, err := svc.Get("news_article")
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.DisplayName != "Short News" {
		t.Errorf("override not applied, display name = %q", tmpl.DisplayName)
	}
	if len(tmpl.Sections) != 2 {
		t.Errorf("sections = %d, want 2", len(tmpl.Sections))
	}
}

func TestLoadDir_YAMLAddsNewType(t *testing.T) {
	dir := t.TempDir()
	newType := `name: newsletter
display_name: Newsletter
sections:
  - name: title
    description: Subject line
    required: true
  - name: opening
    description: Greeting and hook
    required: true
tone:
  voice: friendly
  style: short
  audience: subscribers
`
	if err := os.WriteFile(filepath.Join(dir, "newsletter.yaml"), []byte(newType), 0644); err != nil {
		t.Fatal(err)
	}

	svc, err := NewService(&common.TemplatesConfig{Dir: dir}, arbor.NewLogger())
	if err != nil {
		t.Fatal(err)
	}

	tmpl, err := svc.Get("newsletter")
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.Tone.Voice != "friendly" {
		t.Errorf("tone voice = %q", tmpl.Tone.Voice)
	}
}

func TestLoadDir_RejectsNamelessTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.toml"), []byte(`display_name = "No Name"`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewService(&common.TemplatesConfig{Dir: dir}, arbor.NewLogger())
	if err == nil {
		t.Fatal("expected error for nameless template")
	}
}
