package parser

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/models"
)

var (
	headlineTagRegex = regexp.MustCompile(`(?is)<(?:headline|title)>(.*?)</(?:headline|title)>`)
	sectionTagRegex  = regexp.MustCompile(`(?is)<section\s+name=["']([^"']+)["']>(.*?)</section>`)
)

// Service parses LLM output into ordered article sections. Parsing never
// fails: each strategy is tried in order and an empty map is the worst case.
type Service struct {
	logger arbor.ILogger
}

// NewService creates a section parser
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// ParseSections extracts sections from article text. sectionNames are the
// template's section names; originalSections are additional names from a
// previous pass that tag names may resolve against.
//
// Strategies, first producing output wins:
//  1. XML tags (<headline>/<title> and <section name="...">)
//  2. "HEADLINE:" line or bare tag salvage, stripped before later strategies
//  3. legacy "---SECTION: name---" delimiters
//  4. markdown headers (## opens a section, # sets the headline)
func (s *Service) ParseSections(articleText string, sectionNames, originalSections []string) *models.SectionMap {
	// Primary: XML-style tags
	result := s.parseXMLSections(articleText, sectionNames, originalSections)
	if result.Len() > 0 {
		s.logger.Debug().
			Int("sections", result.Len()).
			Msg("Parsed sections using XML format")
		return result
	}

	result = models.NewSectionMap()

	// Fallback 1: salvage a headline, then strip it for further parsing
	if headline := ExtractHeadline(articleText); headline != "" {
		setHeadline(result, headline, sectionNames)
		if idx := strings.Index(articleText, "HEADLINE:"); idx >= 0 {
			rest := articleText[idx+len("HEADLINE:"):]
			if nl := strings.Index(rest, "\n"); nl >= 0 {
				articleText = rest[nl+1:]
			} else {
				articleText = ""
			}
		}
	}

	// Fallback 2: legacy delimiter format
	if strings.Contains(articleText, "---SECTION:") {
		s.parseDelimiterSections(articleText, sectionNames, result)
		if result.Len() > 0 {
			s.logger.Debug().Msg("Parsed sections using fallback delimiter format")
			return result
		}
	}

	// Fallback 3: markdown headers
	s.parseMarkdownSections(articleText, sectionNames, result)
	if result.Len() > 0 {
		s.logger.Debug().Msg("Parsed sections using fallback markdown header format")
	}

	return result
}

// parseXMLSections extracts <headline>/<title> and <section name="..."> tags
func (s *Service) parseXMLSections(articleText string, sectionNames, originalSections []string) *models.SectionMap {
	result := models.NewSectionMap()

	if m := headlineTagRegex.FindStringSubmatch(articleText); m != nil {
		if headline := strings.TrimSpace(m[1]); headline != "" {
			setHeadline(result, headline, sectionNames)
		}
	}

	for _, m := range sectionTagRegex.FindAllStringSubmatch(articleText, -1) {
		content := strings.TrimSpace(m[2])
		if content == "" {
			continue
		}

		normalized := NormalizeSectionName(m[1])
		matched := resolveSectionName(normalized, sectionNames)
		if matched == "" {
			matched = resolveSectionName(normalized, originalSections)
		}
		if matched == "" {
			matched = normalized
		}
		result.Set(matched, content)
	}

	return result
}

// parseDelimiterSections handles the legacy ---SECTION: name--- format
func (s *Service) parseDelimiterSections(articleText string, sectionNames []string, result *models.SectionMap) {
	blocks := strings.Split(articleText, "---SECTION:")

	// Text before the first marker becomes the opening when the template has one
	firstPart := strings.TrimSpace(blocks[0])
	if firstPart != "" && firstPart != "HEADLINE:" {
		if containsName(sectionNames, "opening") && !result.Has("opening") {
			result.Set("opening", firstPart)
		} else if containsName(sectionNames, "lead") && !result.Has("lead") {
			result.Set("lead", firstPart)
		}
	}

	for _, block := range blocks[1:] {
		parts := strings.SplitN(block, "\n", 2)
		if len(parts) < 2 {
			continue
		}
		nameLine := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[0]), "---"))
		content := strings.TrimSpace(parts[1])

		normalized := NormalizeSectionName(nameLine)
		matched := resolveSectionName(normalized, sectionNames)
		if matched != "" {
			result.Set(matched, content)
		} else if content != "" {
			result.Set(normalized, content)
		}
	}
}

// parseMarkdownSections handles ## section headers and # title lines
func (s *Service) parseMarkdownSections(articleText string, sectionNames []string, result *models.SectionMap) {
	var currentSection string
	var currentContent []string

	flush := func() {
		if currentSection != "" && len(currentContent) > 0 {
			result.Set(currentSection, strings.TrimSpace(strings.Join(currentContent, "\n")))
		}
	}

	for _, line := range strings.Split(articleText, "\n") {
		stripped := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(stripped, "##"):
			flush()
			headerText := strings.TrimSpace(strings.ReplaceAll(stripped, "#", ""))
			currentSection = resolveSectionName(NormalizeSectionName(headerText), sectionNames)
			if currentSection == "" {
				currentSection = NormalizeSectionName(headerText)
			}
			currentContent = nil

		case strings.HasPrefix(stripped, "#"):
			flush()
			headerText := strings.TrimSpace(strings.ReplaceAll(stripped, "#", ""))
			setHeadline(result, headerText, sectionNames)
			currentSection = ""
			currentContent = nil

		default:
			if currentSection != "" {
				currentContent = append(currentContent, line)
			} else if stripped != "" && !result.Has("title") && !result.Has("headline") {
				setHeadline(result, stripped, sectionNames)
			}
		}
	}
	flush()
}

// ExtractHeadline pulls a headline out of tagged or "HEADLINE:" formats.
// Returns "" when no headline is found.
func ExtractHeadline(articleText string) string {
	if m := headlineTagRegex.FindStringSubmatch(articleText); m != nil {
		if headline := strings.TrimSpace(m[1]); headline != "" {
			return headline
		}
	}

	if idx := strings.Index(articleText, "HEADLINE:"); idx >= 0 {
		rest := articleText[idx+len("HEADLINE:"):]
		line := rest
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			line = rest[:nl]
		}
		if headline := strings.TrimSpace(line); headline != "" {
			return headline
		}
	}

	return ""
}

// NormalizeSectionName lowercases a raw tag name and replaces spaces with
// underscores
func NormalizeSectionName(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
}

// resolveSectionName matches a normalized tag name against candidate section
// names: exact match first, then substring containment in either direction.
// Returns "" when nothing matches.
func resolveSectionName(normalized string, candidates []string) string {
	for _, name := range candidates {
		lower := strings.ToLower(name)
		if lower == normalized ||
			strings.Contains(normalized, lower) ||
			strings.Contains(lower, normalized) {
			return name
		}
	}
	return ""
}

// setHeadline stores a headline under "title" when the template uses title,
// otherwise under "headline"
func setHeadline(result *models.SectionMap, headline string, sectionNames []string) {
	if containsName(sectionNames, "title") {
		result.Set("title", headline)
	} else if containsName(sectionNames, "headline") {
		result.Set("headline", headline)
	}
}

func containsName(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}
