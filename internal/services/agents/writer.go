package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/ternarybob/scribo/internal/services/parser"
)

// wordCountTargets maps length settings to word count guidance in prompts
var wordCountTargets = map[string]string{
	"short":  "500-800",
	"medium": "1000-1500",
	"long":   "2000+",
}

// Writer drafts the first version of an article from research findings.
// It is the only composition agent without a merge step since there is no
// prior section map to merge against.
type Writer struct {
	generator interfaces.Generator
	parser    *parser.Service
	logger    arbor.ILogger
}

func NewWriter(generator interfaces.Generator, sectionParser *parser.Service, logger arbor.ILogger) *Writer {
	return &Writer{
		generator: generator,
		parser:    sectionParser,
		logger:    logger,
	}
}

// Write generates the initial article draft. A generation failure is
// returned to the caller; there is nothing to fall back to at this stage.
func (w *Writer) Write(ctx context.Context, research *models.ResearchResult, topic, length string, tmpl *models.MediaTemplate, userContext *models.UserContext) (*models.SectionMap, error) {
	targetWords, ok := wordCountTargets[length]
	if !ok {
		targetWords = wordCountTargets["medium"]
	}

	prompt := w.buildPrompt(research, topic, targetWords, tmpl, userContext)

	w.logger.Info().Str("media_type", tmpl.Name).Str("length", length).Msg("Generating article draft")

	articleText, err := w.generator.Generate(ctx, &interfaces.GenerateRequest{Prompt: prompt})
	if err != nil {
		return nil, common.NewLLMProviderError(w.generator.ProviderName(), fmt.Errorf("article generation failed: %w", err))
	}

	sections := w.parser.ParseSections(articleText, tmpl.SectionNames(), nil)
	w.logger.Info().Int("sections", sections.Len()).Msg("Parsed article draft")

	if ok, missing := w.parser.ValidateStructure(articleText, tmpl.RequiredSectionNames()); !ok {
		w.logger.Warn().Strs("missing", missing).Msg("Draft missing required sections")
	}

	return sections, nil
}

func (w *Writer) buildPrompt(research *models.ResearchResult, topic, targetWords string, tmpl *models.MediaTemplate, userContext *models.UserContext) string {
	var sectionDescriptions []string
	for _, spec := range tmpl.Sections {
		sectionDescriptions = append(sectionDescriptions, fmt.Sprintf("- %s: %s", spec.Name, spec.Description))
	}

	required := tmpl.RequiredSectionNames()
	var optional []string
	for _, spec := range tmpl.Sections {
		if !spec.Required {
			optional = append(optional, spec.Name)
		}
	}
	optionalText := "None"
	if len(optional) > 0 {
		optionalText = strings.Join(optional, ", ")
	}

	hasUserContext := !userContext.IsEmpty()

	var b strings.Builder
	fmt.Fprintf(&b, `You are a professional writer creating a %s article.

TOPIC: %s

TONE AND STYLE:
Voice: %s
Style: %s
Audience: %s

ARTICLE STRUCTURE:
Follow this structure exactly. Generate content for each required section:

%s

Required sections: %s
Optional sections: %s

CRITICAL DISTINCTION - READ CAREFULLY:
`, tmpl.DisplayName, topic, tmpl.Tone.Voice, tmpl.Tone.Style, tmpl.Tone.Audience,
		strings.Join(sectionDescriptions, "\n"), strings.Join(required, ", "), optionalText)

	if hasUserContext {
		b.WriteString("The USER-PROVIDED CONTEXT section below contains the user's NOVEL and UNIQUE technology/approach - created by them. This is the PRIMARY SUBJECT of the article.\n")
	}
	b.WriteString(`The RESEARCH FINDINGS and CONTEXT sections below represent RELATED WORK by OTHER industry experts and researchers.
These findings provide INDUSTRY CONTEXT showing what others in the field are doing.

`)

	findings := research.Findings
	if findings == "" {
		findings = "No research findings available."
	}
	contextText := research.Context
	if contextText == "" {
		contextText = "No context available."
	}

	fmt.Fprintf(&b, `RESEARCH FINDINGS (Related Work by Other Industry Experts):
%s

CONTEXT (Industry Context from Other Experts):
%s

SOURCES (Work by Other Researchers):
%s
`, findings, contextText, formatSourcesBrief(research.Sources))

	if hasUserContext {
		b.WriteString(buildUserContextSection(userContext))
	}

	fmt.Fprintf(&b, `
WRITING REQUIREMENTS:
1. Write in a natural, human-like style that reads authentically
2. Target word count: %s words total
3. Maintain the specified tone throughout
4. Use the research findings to inform your writing, but write naturally
5. Avoid AI-sounding phrases like "In conclusion" or "It is important to note"
6. Write as if you're a professional journalist or researcher
7. Make transitions smooth and natural - write as ONE CONTINUOUS FLOWING ARTICLE
8. Each section should flow seamlessly into the next without breaks or headers
9. Use specific details from research when relevant
10. Write about the topic as if it's about someone else (third person perspective)
11. NO bullet points, numbered lists, or formatting that feels AI-generated
12. NO section headers in the article body - write as continuous narrative
13. Avoid bold or italics unless absolutely necessary for emphasis
14. Use natural paragraph breaks and transitions instead of headers
`, targetWords)

	if hasUserContext {
		b.WriteString(`
CRITICAL DISTINCTION REQUIREMENTS:
15. Clearly distinguish between the user's novel technology (from USER-PROVIDED CONTEXT) and related work by others (from RESEARCH FINDINGS)
16. The user's technology is NOVEL and UNIQUE - created by them. Present it as the PRIMARY SUBJECT of the article
17. Position research findings as INDUSTRY CONTEXT showing what OTHER experts are doing, NOT as tools/frameworks the user's technology uses
18. Use phrases like "Other researchers have explored...", "Industry experts working in similar areas..." when referencing research findings
19. DO NOT suggest the user's technology uses, depends on, or is built from the research findings
20. When integrating research findings, frame them as complementary work: "While others have explored X, this approach does Y uniquely..."
`)
	}

	b.WriteString("\n")
	b.WriteString(xmlOutputInstructions)
	fmt.Fprintf(&b, `

REQUIRED SECTIONS TO INCLUDE: %s

Generate the complete article now, following all guidelines above. Write it as one smooth, flowing narrative using the XML format shown in the example.
`, strings.Join(required, ", "))

	return b.String()
}

// buildUserContextSection renders the user innovation block of the prompt
func buildUserContextSection(userContext *models.UserContext) string {
	var b strings.Builder
	b.WriteString("\n\nUSER-PROVIDED CONTEXT (CRITICAL - This is the user's NOVEL and UNIQUE technology/approach, created by them):\n")
	fmt.Fprintf(&b, "Novel Aspect: %s\n\n", userContext.NovelAspect)
	fmt.Fprintf(&b, "Technology Details: %s\n\n", userContext.TechnologyDetails)
	fmt.Fprintf(&b, "Problem Solved: %s\n", userContext.ProblemSolved)

	if userContext.UseCases != "" {
		fmt.Fprintf(&b, "\nUse Cases: %s\n", userContext.UseCases)
	}
	if userContext.AdditionalNotes != "" {
		fmt.Fprintf(&b, "\nAdditional Notes: %s\n", userContext.AdditionalNotes)
	}
	if userContext.ConfidentialInfo != "" {
		fmt.Fprintf(&b, "\nCRITICAL: Do NOT mention the following in the article: %s\n", userContext.ConfidentialInfo)
	}

	b.WriteString(`
CRITICAL INSTRUCTIONS FOR USER'S TECHNOLOGY:
- This is the user's NOVEL and UNIQUE technology/approach - created by them
- Present this as the PRIMARY SUBJECT and INNOVATION of the article
- This should be presented as unique and novel, NOT as something built on others' work
- Ensure the article prominently features the novel aspects described above
- Integrate user-provided details naturally into the narrative
- The novel aspect should be a central theme throughout the article
- Use the technology details to provide concrete examples
- Connect the problem solved to broader industry challenges
- When mentioning related work from research findings, clearly distinguish it as 'other industry experts' or 'researchers in the field'
- DO NOT suggest the user's technology uses, depends on, or is built from the research findings
- Instead, position research findings as complementary work showing what others are doing in similar areas
`)

	if userContext.ConfidentialInfo != "" {
		fmt.Fprintf(&b, "- Absolutely do not mention: %s\n", userContext.ConfidentialInfo)
	}

	return b.String()
}

// formatSourcesBrief renders a compact source list for the writing prompt,
// capped at 10 entries with short snippets
func formatSourcesBrief(sources []models.SourceRecord) string {
	if len(sources) == 0 {
		return "No sources available."
	}

	var lines []string
	for i, source := range sources {
		if i >= 10 {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, source.Title, source.URL))
		if source.Snippet != "" {
			snippet := source.Snippet
			if len(snippet) > 150 {
				snippet = snippet[:150]
			}
			lines = append(lines, fmt.Sprintf("   %s...", snippet))
		}
	}

	return strings.Join(lines, "\n")
}
