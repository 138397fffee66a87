package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/ternarybob/scribo/internal/services/parser"
)

// intensityInstructions map the configured intensity to prompt guidance
var intensityInstructions = map[string]string{
	"low":    "Make subtle improvements while preserving most of the original structure.",
	"medium": "Make noticeable improvements to naturalness while maintaining the core content.",
	"high":   "Aggressively transform the text to sound completely human-written, even if it means more significant restructuring.",
}

// Humanizer rewrites an article over one to three passes so it reads as
// human-written. Each pass has its own focus: sentence variation, AI-phrase
// removal, then voice polish. Output of every pass is merged against the
// pre-humanization map so no section can be lost mid-flight.
type Humanizer struct {
	generator interfaces.Generator
	parser    *parser.Service
	logger    arbor.ILogger

	enabled   bool
	passes    int
	intensity string
}

func NewHumanizer(generator interfaces.Generator, sectionParser *parser.Service, enabled bool, passes int, intensity string, logger arbor.ILogger) *Humanizer {
	if passes < 1 {
		passes = 1
	}
	if passes > 3 {
		passes = 3
	}
	return &Humanizer{
		generator: generator,
		parser:    sectionParser,
		logger:    logger,
		enabled:   enabled,
		passes:    passes,
		intensity: intensity,
	}
}

// Humanize runs the configured passes over the article. A failed pass
// returns the result of the last completed pass, or the input when the
// first pass fails.
func (h *Humanizer) Humanize(ctx context.Context, sections *models.SectionMap, tmpl *models.MediaTemplate) *models.SectionMap {
	if !h.enabled {
		h.logger.Info().Msg("Humanization is disabled, returning article unchanged")
		return sections
	}

	articleText := formatSectionsAsXML(sections)
	patterns := DetectAIPatterns(articleText, tmpl.Name)
	variation := AnalyzeSentenceVariation(articleText)

	h.logger.Info().
		Int("patterns", len(patterns)).
		Float64("variation_score", variation.VariationScore).
		Msg("Analyzed article before humanization")

	current := sections
	for pass := 1; pass <= h.passes; pass++ {
		h.logger.Info().Int("pass", pass).Int("total", h.passes).Msg("Humanization pass")

		prompt := h.buildPrompt(current, tmpl, pass, patterns, variation)

		humanizedText, err := h.generator.Generate(ctx, &interfaces.GenerateRequest{Prompt: prompt})
		if err != nil {
			h.logger.Warn().Int("pass", pass).Err(err).Msg("Humanization pass failed, keeping previous version")
			return current
		}

		parsed := h.parser.ParseSections(humanizedText, tmpl.SectionNames(), sections.Keys())
		if parsed.Len() == 0 {
			h.logger.Warn().Int("pass", pass).Msg("Humanization pass produced no parseable sections, keeping previous version")
			return current
		}

		// Missing sections always fall back to the pre-humanization map
		current = models.MergeSections(sections, parsed)

		if pass < h.passes {
			variation = AnalyzeSentenceVariation(formatSectionsAsXML(current))
		}
	}

	return current
}

func (h *Humanizer) buildPrompt(sections *models.SectionMap, tmpl *models.MediaTemplate, pass int, patterns []PatternHit, variation VariationMetrics) string {
	articleText := formatSectionsAsXML(sections)

	var focus string
	switch pass {
	case 1:
		focus = `CRITICAL FOCUS FOR THIS PASS: Sentence Variation (Perplexity & Burstiness) - BE AGGRESSIVE

1. DRAMATICALLY VARY SENTENCE LENGTH:
   - Add SHORT punchy sentences (3-8 words) for impact: "This changes everything." "The implications are huge."
   - Mix with MEDIUM sentences (12-18 words) for flow
   - Include LONGER complex sentences (25-35 words) for depth
   - Humans write with WILD variation - break every uniform pattern!

2. VARY SENTENCE STRUCTURE AGGRESSIVELY:
   - Start some sentences with verbs: "Consider the implications."
   - Start some with conjunctions: "But here's the thing."
   - Use fragments for emphasis: "Not anymore."
   - Alternate simple, compound, complex, and compound-complex sentences

3. CREATE NATURAL RHYTHM:
   - Break up any sequence of similar-length sentences
   - Add intentional pauses with shorter sentences
   - Use longer sentences to build momentum, then break with short ones

4. ADD SENTENCE COMPLEXITY VARIATION:
   - Some sentences should be dead simple: "The problem is clear."
   - Others should be nuanced and layered
   - Vary the complexity within paragraphs`

		if variation.VariationScore < 0.5 && variation.SentenceCount > 0 {
			focus += "\n\nLOW VARIATION DETECTED: The current text has very uniform sentence lengths. DRAMATICALLY increase variation - add many more short sentences and vary lengths aggressively."
		}

	case 2:
		focus = `CRITICAL FOCUS FOR THIS PASS: Remove AI Patterns & Natural Transitions - BE AGGRESSIVE

1. ELIMINATE ALL AI-SOUNDING PHRASES:
   - Remove: "In conclusion", "It is important to note", "Furthermore", "Moreover", "Additionally", "This demonstrates", "This indicates", "This suggests", "It is worth noting", "It should be noted"
   - Replace with NOTHING (just delete) or natural alternatives
   - Be ruthless - if it sounds like AI wrote it, remove it

2. IMPROVE TRANSITIONS RADICALLY:
   - Delete formulaic connectors entirely where possible
   - Use context-based transitions: reference previous content naturally
   - Start paragraphs with specific details, not generic connectors
   - Let ideas flow organically without forcing connections

3. REMOVE REPETITIVE STRUCTURES:
   - If multiple sentences start the same way, rewrite them
   - Vary paragraph openings dramatically
   - Break any patterns that feel formulaic

4. USE NATURAL CONNECTORS:
   - Instead of "Furthermore" use "Plus" or "Also" or nothing
   - Instead of "Moreover" use "What's more" or nothing
   - Instead of "In addition" use "Also" or nothing
   - Prefer deleting connectors over replacing them`

		if len(patterns) > 0 {
			var names []string
			for i, hit := range patterns {
				if i >= 15 {
					break
				}
				names = append(names, hit.Phrase)
			}
			focus += fmt.Sprintf("\n\nDETECTED AI PATTERNS TO REMOVE: %s\n\nREMOVE ALL OF THESE - be aggressive!", strings.Join(names, ", "))
		}

	default:
		focus = `CRITICAL FOCUS FOR THIS PASS: Voice Refinement & Final Polish - BE AGGRESSIVE

1. ADD STRONG PERSONALITY:
   - Inject natural voice appropriate for the media type
   - Add personality markers: opinions, asides, natural expressions
   - Make it sound like a real person wrote this, not a machine

2. REFINE TONE AGGRESSIVELY:
   - Ensure tone matches publication style throughout
   - Remove any remaining formal/AI-sounding language
   - Add appropriate casualness for the media type

3. FINAL POLISH:
   - Smooth ALL awkward phrasing
   - Remove any remaining robotic patterns
   - Ensure every sentence flows naturally

4. ENSURE CONSISTENCY:
   - Check that voice is consistent throughout
   - Make sure personality doesn't disappear in later sections`
	}

	intensityNote, ok := intensityInstructions[h.intensity]
	if !ok {
		intensityNote = intensityInstructions["medium"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert editor specializing in transforming AI-generated text into natural, human-written content for %s publications.

%s

INTENSITY LEVEL: %s

MEDIA TYPE CONTEXT:
- Tone: %s
- Style Guidelines: %s

ORIGINAL ARTICLE:
%s

HUMANIZATION REQUIREMENTS:
1. PRESERVE ALL FACTUAL CONTENT: Do not change facts, data, names, or key information
2. MAINTAIN ARTICLE STRUCTURE: Keep all sections intact but write as continuous flowing narrative
3. PRESERVE MEANING: The core message and meaning must remain identical
4. APPLY FOCUS AREA: Follow the critical focus instructions above for this pass
5. NATURAL LANGUAGE: Write as a professional human journalist/researcher would
6. AVOID AI PATTERNS: Eliminate robotic, formulaic, or AI-sounding language
7. MEDIA TYPE APPROPRIATE: Match the tone and style for %s
8. NO SECTION HEADERS: Write as one continuous flowing article without headers
9. NO BULLET POINTS: Use flowing paragraphs instead
10. AVOID BOLD/ITALICS: Only use if absolutely necessary for emphasis

SPECIFIC INSTRUCTIONS FOR %s:
%s

`, tmpl.DisplayName, focus, intensityNote, tmpl.Tone.Voice, tmpl.Tone.Style, articleText,
		tmpl.Name, tmpl.Name, mediaTypeInstructions(tmpl.Name))

	b.WriteString(xmlOutputInstructions)
	fmt.Fprintf(&b, "\n\nTransform the article now, applying the focus area for pass %d while preserving all factual content and structure as one flowing narrative using the XML format shown above.\n", pass)

	return b.String()
}

// mediaTypeInstructions returns tone guidance for the humanization prompt
func mediaTypeInstructions(mediaType string) string {
	switch mediaType {
	case "news_article":
		return `- Use VERY conversational, forward-looking language - write like you're telling a story to a friend
- USE CONTRACTIONS FREQUENTLY: it's, that's, we're, don't, can't, won't, they're, you're
- Use active voice throughout - NO passive voice
- Make it engaging and accessible - add personality, opinions, natural expressions
- Avoid ALL overly formal academic language - if it sounds academic, make it casual
- Add natural asides and observations: "Here's the thing...", "The catch?", "Here's why this matters..."
- Use shorter paragraphs (2-4 sentences max)
- Start paragraphs with specific details, not generic statements
- Add rhetorical questions where appropriate: "But what does this mean?"`
	case "press_release":
		return `- Professional but not overly formal
- Respectful and achievement-focused
- Natural transitions
- Clear, readable prose
- Appropriate for a broad professional audience`
	case "linkedin_article":
		return `- Balance accessibility with authority
- Use engaging first-person-friendly voice
- Natural explanations of complex concepts
- Smooth narrative flow
- Connect ideas organically`
	default:
		return `- Maintain an engaging but natural tone
- Use precise, readable language
- Keep accuracy while improving flow
- Natural transitions between concepts`
	}
}
