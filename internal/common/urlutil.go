package common

import (
	"net/url"
	"strings"
)

// NormalizeURLForDedup reduces a URL to scheme + host + path for duplicate
// detection. Query strings, fragments and trailing slashes are dropped so
// tracking-parameter variants of the same page compare equal.
func NormalizeURLForDedup(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	path := strings.TrimSuffix(parsed.Path, "/")
	return parsed.Scheme + "://" + strings.ToLower(parsed.Host) + path
}

// CleanSourceURL repairs URLs as they come back from LLM output or scraped
// text: unbalanced markdown parentheses, trailing punctuation, missing
// scheme, fragments.
func CleanSourceURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)
	if cleaned == "" {
		return ""
	}

	// Trim trailing ")" left over from markdown links when unbalanced
	for strings.HasSuffix(cleaned, ")") &&
		strings.Count(cleaned, ")") > strings.Count(cleaned, "(") {
		cleaned = strings.TrimSuffix(cleaned, ")")
	}

	cleaned = strings.TrimRight(cleaned, ".,;:!?")

	if !strings.HasPrefix(cleaned, "http://") && !strings.HasPrefix(cleaned, "https://") {
		cleaned = "https://" + cleaned
	}

	if idx := strings.Index(cleaned, "#"); idx > 0 {
		cleaned = cleaned[:idx]
	}

	return cleaned
}
