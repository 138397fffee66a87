package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const htmlPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: Georgia, 'Times New Roman', serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #222; }
h1 { font-size: 1.8rem; line-height: 1.3; }
h2 { font-size: 1.3rem; margin-top: 2rem; border-bottom: 1px solid #ddd; padding-bottom: 0.3rem; }
a { color: #0645ad; }
blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; color: #555; }
hr { border: none; border-top: 1px solid #ddd; margin: 2rem 0; }
</style>
</head>
<body>
%s</body>
</html>
`

// MarkdownToHTML converts article markdown to a standalone HTML page
func (s *Service) MarkdownToHTML(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Converting markdown to HTML")

	markdown = stripMetadataBlock(markdown)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render HTML")
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}

	page := fmt.Sprintf(htmlPageTemplate, html.EscapeString(title), body.String())
	return []byte(page), nil
}

// stripMetadataBlock removes the leading --- delimited metadata block from a
// rendered article so exports start at the headline.
func stripMetadataBlock(markdown string) string {
	if !strings.HasPrefix(markdown, "---\n") {
		return markdown
	}
	endIdx := strings.Index(markdown[4:], "\n---\n")
	if endIdx == -1 {
		return markdown
	}
	return strings.TrimSpace(markdown[4+endIdx+5:])
}
