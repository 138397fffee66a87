package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/scribo/internal/models"
)

// RenderArticle assembles the final markdown document: a metadata block,
// the headline as H1, then section bodies in template order as flowing
// prose with no headers between them. Sources are appended separately.
func RenderArticle(sections *models.SectionMap, tmpl *models.MediaTemplate, topic string) string {
	var lines []string

	headline := strings.TrimSpace(sections.Value("headline"))
	if headline == "" {
		headline = strings.TrimSpace(sections.Value("title"))
	}

	title := headline
	if title == "" {
		title = topic
	}

	lines = append(lines,
		"---",
		fmt.Sprintf("title: %s", title),
		fmt.Sprintf("date: %s", time.Now().Format("2006-01-02")),
		fmt.Sprintf("media_type: %s", tmpl.Name),
		fmt.Sprintf("topic: %s", topic),
		"---",
		"")

	if headline != "" {
		lines = append(lines, fmt.Sprintf("# %s", headline), "")
	}

	first := true
	for _, spec := range tmpl.Sections {
		name := spec.Name
		if name == "title" || name == "headline" || name == "sources" || name == "references" {
			continue
		}

		content := strings.TrimSpace(sections.Value(name))
		if content == "" {
			continue
		}
		// Unfilled template placeholders like "[Description text]" are dropped
		if strings.HasPrefix(content, "[") && strings.HasSuffix(content, "]") {
			continue
		}

		if first {
			lines = append(lines, content)
			first = false
		} else {
			lines = append(lines, "", content)
		}
	}

	return strings.Join(lines, "\n")
}

// GenerateFilename expands a filename template with {date}, {topic}, and
// {media_type} placeholders. The topic is sanitized for filesystem use.
func GenerateFilename(template, topic, mediaType string) string {
	var b strings.Builder
	for _, c := range topic {
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == ' ' || c == '-' || c == '_':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	safeTopic := strings.ToLower(strings.ReplaceAll(b.String(), " ", "_"))
	if len(safeTopic) > 50 {
		safeTopic = safeTopic[:50]
	}

	filename := template
	filename = strings.ReplaceAll(filename, "{date}", time.Now().Format("20060102"))
	filename = strings.ReplaceAll(filename, "{topic}", safeTopic)
	filename = strings.ReplaceAll(filename, "{media_type}", mediaType)
	return filename
}
