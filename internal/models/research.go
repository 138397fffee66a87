package models

import "time"

// SourceRecord is a single web source returned by a search provider
type SourceRecord struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Text    string `json:"text,omitempty"` // Full page text when enrichment is enabled
}

// ResearchResult is the output of the research stage for a topic
type ResearchResult struct {
	Topic     string         `json:"topic"`
	Queries   []string       `json:"queries"`
	Sources   []SourceRecord `json:"sources"`
	Findings  string         `json:"findings"`
	Context   string         `json:"context"`
	FromCache bool           `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
}

// UserContext carries the caller's framing of their own work. The research
// and writing stages keep the distinction between third-party sources and
// the caller's innovation intact, so this text is passed through verbatim.
type UserContext struct {
	NovelAspect       string `json:"novel_aspect"`
	TechnologyDetails string `json:"technology_details"`
	ProblemSolved     string `json:"problem_solved"`
	UseCases          string `json:"use_cases,omitempty"`
	ConfidentialInfo  string `json:"confidential_info,omitempty"`
	AdditionalNotes   string `json:"additional_notes,omitempty"`
}

// IsEmpty reports whether no context fields are set
func (c *UserContext) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.NovelAspect == "" && c.TechnologyDetails == "" && c.ProblemSolved == "" &&
		c.UseCases == "" && c.ConfidentialInfo == "" && c.AdditionalNotes == ""
}
