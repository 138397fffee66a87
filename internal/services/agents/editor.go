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

// Editor refines an article draft for flow and naturalness. Sections the
// edit pass fails to return are backfilled from the input so the stage can
// never lose content.
type Editor struct {
	generator interfaces.Generator
	parser    *parser.Service
	logger    arbor.ILogger
}

func NewEditor(generator interfaces.Generator, sectionParser *parser.Service, logger arbor.ILogger) *Editor {
	return &Editor{
		generator: generator,
		parser:    sectionParser,
		logger:    logger,
	}
}

// Edit refines the article. On generation failure the untouched input is
// returned so the pipeline degrades instead of aborting.
func (e *Editor) Edit(ctx context.Context, sections *models.SectionMap, tmpl *models.MediaTemplate) *models.SectionMap {
	prompt := e.buildPrompt(sections, tmpl)

	e.logger.Info().Str("media_type", tmpl.Name).Msg("Refining article")

	editedText, err := e.generator.Generate(ctx, &interfaces.GenerateRequest{Prompt: prompt})
	if err != nil {
		e.logger.Warn().Err(err).Msg("Edit pass failed, keeping draft unchanged")
		return sections
	}

	edited := e.parser.ParseSections(editedText, tmpl.SectionNames(), nil)
	if edited.Len() == 0 {
		e.logger.Warn().Msg("Edit pass produced no parseable sections, keeping draft unchanged")
		return sections
	}

	merged := models.MergeSections(sections, edited)
	e.logger.Info().Int("edited", edited.Len()).Int("total", merged.Len()).Msg("Merged edited sections")
	return merged
}

func (e *Editor) buildPrompt(sections *models.SectionMap, tmpl *models.MediaTemplate) string {
	articleText := formatSectionsAsXML(sections)

	var b strings.Builder
	fmt.Fprintf(&b, `You are an experienced editor reviewing an article for a %s publication.

Your task is to refine this article to ensure it:
1. Reads naturally and human-like (not AI-generated)
2. Maintains consistent tone: %s
3. Has smooth transitions between sections
4. Uses natural language and avoids cliches
5. Follows the house style: %s

ORIGINAL ARTICLE:
%s

EDITING INSTRUCTIONS:
- Preserve the article structure and all sections
- Improve flow and readability - maintain smooth transitions between sections
- Remove any AI-sounding phrases or patterns
- Ensure the writing feels authentic and human-written
- Maintain the original meaning and key points
- Fix any awkward phrasing or transitions
- Ensure consistency in style throughout
- NO section headers in the output - write as continuous flowing narrative
- NO bullet points or lists - use flowing paragraphs
- Avoid bold or italics unless absolutely necessary

`, tmpl.DisplayName, tmpl.Tone.Voice, tmpl.Tone.Style, articleText)

	b.WriteString(xmlOutputInstructions)
	b.WriteString("\n\nEdit the entire article now, maintaining all sections but improving quality and human-like flow as one continuous narrative using the XML format shown above.\n")

	return b.String()
}
