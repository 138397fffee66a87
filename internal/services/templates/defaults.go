package templates

import (
	"github.com/ternarybob/scribo/internal/models"
)

// defaultTemplates are the built-in media types. Files in the templates
// directory override entries by name.
func defaultTemplates() map[string]*models.MediaTemplate {
	return map[string]*models.MediaTemplate{
		"news_article": {
			Name:        "news_article",
			DisplayName: "News Article",
			Sections: []models.SectionSpec{
				{Name: "headline", Description: "Attention-grabbing factual headline", Required: true},
				{Name: "lead", Description: "Who, what, when, where, why in the first paragraph", Required: true},
				{Name: "context", Description: "Background the reader needs to understand the story", Required: true},
				{Name: "why_it_matters", Description: "The significance for the reader and the field", Required: true},
				{Name: "conclusion", Description: "Forward-looking close", Required: false},
			},
			Tone: models.ToneConfig{
				Voice:    "objective, third person",
				Style:    "inverted pyramid, short declarative sentences, no hype",
				Audience: "general news readers",
			},
		},
		"blog_post": {
			Name:        "blog_post",
			DisplayName: "Blog Post",
			Sections: []models.SectionSpec{
				{Name: "title", Description: "Engaging title that promises a takeaway", Required: true},
				{Name: "opening", Description: "Hook that frames the problem", Required: true},
				{Name: "background", Description: "What led here and why it was hard", Required: true},
				{Name: "the_story", Description: "The main narrative with concrete details", Required: true},
				{Name: "impact", Description: "What changes because of this", Required: false},
				{Name: "what_next", Description: "Where this goes from here", Required: false},
			},
			Tone: models.ToneConfig{
				Voice:    "first person, conversational",
				Style:    "direct, concrete examples over abstractions, occasional humor",
				Audience: "practitioners and enthusiasts",
			},
		},
		"press_release": {
			Name:        "press_release",
			DisplayName: "Press Release",
			Sections: []models.SectionSpec{
				{Name: "headline", Description: "Announcement headline with the organization name", Required: true},
				{Name: "subheadline", Description: "One-sentence elaboration", Required: false},
				{Name: "lead", Description: "The announcement itself with date and place", Required: true},
				{Name: "background", Description: "Company and product background", Required: true},
				{Name: "achievement", Description: "What was achieved, with numbers where possible", Required: true},
				{Name: "recognition", Description: "Quotes from leadership or partners", Required: false},
				{Name: "conclusion", Description: "Availability and contact framing", Required: true},
			},
			Tone: models.ToneConfig{
				Voice:    "formal, third person",
				Style:    "factual announcement style, quotable statements",
				Audience: "journalists and industry analysts",
			},
		},
		"linkedin_article": {
			Name:        "linkedin_article",
			DisplayName: "LinkedIn Article",
			Sections: []models.SectionSpec{
				{Name: "title", Description: "Professional but personal title", Required: true},
				{Name: "opening", Description: "Personal angle on the topic", Required: true},
				{Name: "the_story", Description: "The experience or insight, told directly", Required: true},
				{Name: "why_it_matters", Description: "Lesson for the reader's own work", Required: true},
				{Name: "what_next", Description: "Invitation to discuss or act", Required: false},
			},
			Tone: models.ToneConfig{
				Voice:    "first person, professional",
				Style:    "short paragraphs, practical takeaways, no corporate jargon",
				Audience: "professional network",
			},
		},
	}
}
