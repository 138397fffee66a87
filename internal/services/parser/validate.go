package parser

import (
	"regexp"
	"strings"
)

// Open tags are enough for validation; the content checks happen at parse time
var headlineOpenRegex = regexp.MustCompile(`(?i)<(?:headline|title)>`)

// ValidateStructure checks that the tagged article text contains every
// required section. It returns whether the structure is complete plus the
// missing section names. Callers log the result; a failed validation never
// aborts parsing.
func (s *Service) ValidateStructure(articleText string, requiredSections []string) (bool, []string) {
	found := make(map[string]bool)

	for _, m := range sectionTagRegex.FindAllStringSubmatch(articleText, -1) {
		found[NormalizeSectionName(m[1])] = true
	}

	// A headline tag satisfies both headline and title requirements
	if headlineOpenRegex.MatchString(articleText) {
		found["headline"] = true
		found["title"] = true
	}

	var missing []string
	for _, required := range requiredSections {
		normalized := NormalizeSectionName(required)
		matched := false
		for name := range found {
			if normalized == name ||
				strings.Contains(name, normalized) ||
				strings.Contains(normalized, name) {
				matched = true
				break
			}
		}
		if !matched {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		s.logger.Warn().
			Strs("missing", missing).
			Msg("Article structure missing required sections")
	}

	return len(missing) == 0, missing
}
