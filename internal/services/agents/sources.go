package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// minFormattedSourcesLength is the plausibility floor for LLM-formatted
// sources. Shorter output triggers the deterministic fallback.
const minFormattedSourcesLength = 50

// SourcesFormatter produces the trailing sources block of a document. An
// LLM pass cleans titles, URLs, and snippets; a deterministic formatter
// backs it up so the block is never missing when sources exist.
type SourcesFormatter struct {
	generator interfaces.Generator
	logger    arbor.ILogger
}

func NewSourcesFormatter(generator interfaces.Generator, logger arbor.ILogger) *SourcesFormatter {
	return &SourcesFormatter{generator: generator, logger: logger}
}

// FormatSources renders sources as a "## Sources" markdown block.
// Returns "" for an empty source list.
func (f *SourcesFormatter) FormatSources(ctx context.Context, sources []models.SourceRecord) string {
	if len(sources) == 0 {
		return ""
	}

	f.logger.Info().Int("count", len(sources)).Msg("Formatting source citations")

	prompt := f.buildPrompt(sources)
	output, err := f.generator.Generate(ctx, &interfaces.GenerateRequest{Prompt: prompt, MaxTokens: 10000})
	if err != nil {
		f.logger.Warn().Err(err).Msg("Sources formatting failed, using fallback")
		return FallbackFormatSources(sources)
	}

	formatted := f.extractSourcesBlock(output)
	if len(strings.TrimSpace(formatted)) < minFormattedSourcesLength {
		f.logger.Warn().Msg("Sources formatting produced minimal output, using fallback")
		return FallbackFormatSources(sources)
	}

	return formatted
}

func (f *SourcesFormatter) buildPrompt(sources []models.SourceRecord) string {
	var sourcesText []string
	for i, source := range sources {
		title := source.Title
		if title == "" {
			title = "Untitled"
		}
		sourcesText = append(sourcesText, fmt.Sprintf("Source %d:", i+1))
		sourcesText = append(sourcesText, fmt.Sprintf("  Title: %s", title))
		sourcesText = append(sourcesText, fmt.Sprintf("  URL: %s", source.URL))
		if source.Snippet != "" {
			snippet := source.Snippet
			if len(snippet) > 300 {
				snippet = snippet[:300]
			}
			sourcesText = append(sourcesText, fmt.Sprintf("  Snippet: %s...", snippet))
		}
		sourcesText = append(sourcesText, "")
	}

	return fmt.Sprintf(`You are an expert editor specializing in formatting academic and journalistic citations. Your task is to clean, format, and improve source citations for a professional article.

RAW SOURCES TO FORMAT:
%s

TASKS:
1. CLEAN TITLES: Remove navigation elements, markdown artifacts, prefixes like "Full article:", "[...]", etc. Extract the actual article/resource title.
2. VALIDATE URLs: Fix broken URLs, remove trailing parentheses or punctuation, ensure URLs are complete and valid.
3. IMPROVE SNIPPETS: Extract meaningful, relevant snippets (50-150 words) that provide context. Remove navigation elements, URLs, author lines, metadata, and other noise.
4. DEDUPLICATE: If multiple sources point to the same resource (same base URL), keep only the best one.
5. ORDER: Sort sources logically (by relevance or chronologically if appropriate).

OUTPUT FORMAT - CRITICAL CONSISTENCY:
Provide the formatted sources as clean markdown with ABSOLUTELY CONSISTENT formatting.

EXAMPLE OF EXACT FORMAT REQUIRED:

## Sources

1. [From Digital Twins to Digital Twin Prototypes: Concepts, Formalization, and Applications](https://arxiv.org/abs/2401.07985)
   This research explores the evolution of the digital twin concept, specifically formalizing the Digital Twin Prototype as a distinct phase in the product lifecycle. The paper provides a theoretical framework for how prototypes serve as the precursor to operational twins.

2. [Developing a Physical and Digital Twin: An Example Process Model](https://ieeexplore.ieee.org/document/9643681/)
   Published via IEEE, this paper outlines a comprehensive process model for the concurrent development of physical assets and their digital counterparts. It emphasizes the synchronization required between hardware engineering and software modeling.

CRITICAL REQUIREMENTS FOR CONSISTENCY:
- Titles must be clean, readable, and professional (no markdown artifacts, no navigation text, no prefixes like "Full article:")
- URLs must be valid and complete (no trailing parentheses, no broken links, properly formatted)
- Snippets must be meaningful and relevant (50-150 words, complete sentences, descriptive, professional)
- Each source MUST follow the EXACT same format:
  * Numbered list item (1., 2., 3., etc.) with markdown link [Title](URL)
  * Exactly three spaces of indentation for snippet (use spaces, not tabs)
  * Snippet style: Complete sentences, descriptive, professional, no URLs or navigation elements
- Remove any sources that are duplicates or have invalid URLs
- Ensure all sources use the same formatting pattern - no variations in spacing, style, or structure

Format ALL sources following the example above with perfect consistency:
`, strings.Join(sourcesText, "\n"))
}

// extractSourcesBlock trims any preamble before the "## Sources" header and
// guarantees the header is present
func (f *SourcesFormatter) extractSourcesBlock(output string) string {
	lines := strings.Split(output, "\n")

	start := -1
	for i, line := range lines {
		if strings.Contains(line, "## Sources") || strings.Contains(line, "## SOURCES") {
			start = i
			break
		}
	}
	if start == -1 {
		start = 0
	}

	formatted := strings.TrimSpace(strings.Join(lines[start:], "\n"))
	if formatted != "" && !strings.HasPrefix(formatted, "##") {
		formatted = "## Sources\n\n" + formatted
	}
	return formatted
}

var (
	htmlTagRegex       = regexp.MustCompile(`<[^>]+>`)
	whitespaceRegex    = regexp.MustCompile(`\s+`)
	titlePrefixRegex   = regexp.MustCompile(`(?i)^(Full article|Article|Paper|Research|Study):\s*`)
	titleMarkdownRegex = regexp.MustCompile(`^\[.*?\]\s*`)
	trailingURLRegex   = regexp.MustCompile(`\s*\(https?://\S+\)\s*$`)
	trailingLinkRegex  = regexp.MustCompile(`\s*\[.*?\]\(.*?\)\s*$`)
)

// snippetNoiseRegexps remove scraped page chrome from snippets
var snippetNoiseRegexps = []*regexp.Regexp{
	regexp.MustCompile(`(?im)Skip to main content`),
	regexp.MustCompile(`(?im)Skip to content`),
	regexp.MustCompile(`(?im)Search in:.*`),
	regexp.MustCompile(`(?im)Advanced search`),
	regexp.MustCompile(`\[.*?\]`),
	regexp.MustCompile(`(?im)Font Type:.*`),
	regexp.MustCompile(`(?im)Open AccessArticle`),
	regexp.MustCompile(`(?im)by\s+\w+.*`),
	regexp.MustCompile(`(?im)Hostname:.*`),
	regexp.MustCompile(`(?im)Total loading time:.*`),
	regexp.MustCompile(`(?im)Render date:.*`),
	regexp.MustCompile(`(?im)Has data issue:.*`),
	regexp.MustCompile(`(?im)hasContentIssue.*`),
	regexp.MustCompile(`(?im)Article Menu`),
}

// snippetSkipSubstrings drop whole lines of navigation or metadata
var snippetSkipSubstrings = []string{
	"skip to", "search", "menu", "home", "hostname", "render date", "font type",
	"next article", "previous article", "journals", "about", "copyright",
	"thank you for visiting", "you are using a browser", "limited support",
	"cookie", "privacy", "terms", "sign in", "log in", "register",
	"vol.:", "original article", "published:", "received:", "doi:",
	"arxiv:", "computer science", "title:", "author:", "abstract:",
	"introduction", "conclusion", "references", "keywords:",
	"full article", "read more", "continue reading",
}

// CleanSourceSnippet strips HTML, navigation noise, and metadata lines from
// a scraped snippet, then truncates to 250 chars at a sentence boundary
// where possible.
func CleanSourceSnippet(snippet string) string {
	if snippet == "" {
		return ""
	}

	snippet = htmlTagRegex.ReplaceAllString(snippet, "")
	for _, re := range snippetNoiseRegexps {
		snippet = re.ReplaceAllString(snippet, "")
	}

	var kept []string
	for _, line := range strings.Split(snippet, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) < 10 {
			continue
		}
		lower := strings.ToLower(line)
		skip := false
		for _, sub := range snippetSkipSubstrings {
			if strings.Contains(lower, sub) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if strings.Count(line, "http") > 1 || (strings.HasPrefix(line, "http") && len(line) < 50) {
			continue
		}
		if (strings.HasPrefix(line, "![") || strings.HasPrefix(line, "](") || strings.HasPrefix(line, "*")) &&
			strings.Contains(line, "http") && len(line) < 100 {
			continue
		}
		kept = append(kept, line)
	}

	snippet = strings.TrimSpace(whitespaceRegex.ReplaceAllString(strings.Join(kept, " "), " "))

	if len(snippet) > 250 {
		truncated := snippet[:247]
		lastPeriod := strings.LastIndex(truncated, ".")
		lastSpace := strings.LastIndex(truncated, " ")
		switch {
		case lastPeriod > 200:
			snippet = truncated[:lastPeriod+1]
		case lastSpace > 200:
			snippet = truncated[:lastSpace] + "..."
		default:
			snippet = truncated + "..."
		}
	}

	return snippet
}

// cleanSourceTitle trims prefixes and truncates overlong titles at a word
// boundary
func cleanSourceTitle(title string) string {
	title = strings.TrimSpace(title)
	title = titlePrefixRegex.ReplaceAllString(title, "")
	title = titleMarkdownRegex.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}

	if len(title) > 120 {
		truncated := title[:117]
		lastSpace := strings.LastIndex(truncated, " ")
		if lastSpace > 100 {
			title = truncated[:lastSpace] + "..."
		} else {
			title = truncated + "..."
		}
	}

	return title
}

// FallbackFormatSources is the deterministic citation formatter used when
// the LLM pass fails or returns implausible output
func FallbackFormatSources(sources []models.SourceRecord) string {
	if len(sources) == 0 {
		return ""
	}

	seen := make(map[string]bool)
	var unique []models.SourceRecord
	for _, source := range sources {
		normalized := common.NormalizeURLForDedup(source.URL)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		unique = append(unique, source)
	}
	if len(unique) == 0 {
		return ""
	}

	lines := []string{"## Sources", ""}
	for i, source := range unique {
		title := cleanSourceTitle(source.Title)
		url := common.CleanSourceURL(source.URL)
		snippet := CleanSourceSnippet(source.Snippet)

		lines = append(lines, fmt.Sprintf("%d. [%s](%s)", i+1, title, url))

		if len(strings.TrimSpace(snippet)) > 20 {
			snippet = trailingURLRegex.ReplaceAllString(strings.TrimSpace(snippet), "")
			snippet = trailingLinkRegex.ReplaceAllString(snippet, "")
			if len(strings.TrimSpace(snippet)) > 20 {
				lines = append(lines, fmt.Sprintf("   %s", snippet))
			}
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
