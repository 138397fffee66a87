package agents

import (
	"fmt"
	"strings"

	"github.com/ternarybob/scribo/internal/models"
)

// canonicalSectionOrder is the logical reading order used when flattening a
// section map into prompt text or a rendered document. Sections not listed
// here are appended in insertion order.
var canonicalSectionOrder = []string{
	"title", "headline", "subheadline", "abstract", "lead", "opening",
	"introduction", "background", "methodology", "discovery", "achievement",
	"results", "the_story", "discussion", "impact", "why_it_matters",
	"conclusion", "future", "what_next", "context", "recognition",
}

// formatSectionsAsXML flattens sections into the tagged form the composition
// prompts expect. The headline (or title) leads, sources and references are
// always excluded.
func formatSectionsAsXML(sections *models.SectionMap) string {
	var lines []string

	headline := sections.Value("headline")
	if headline == "" {
		headline = sections.Value("title")
	}
	if headline != "" {
		lines = append(lines, fmt.Sprintf("<headline>%s</headline>", headline), "")
	}

	emitted := map[string]bool{"title": true, "headline": true, "sources": true, "references": true}

	emit := func(name string) {
		if emitted[name] {
			return
		}
		emitted[name] = true
		content := strings.TrimSpace(sections.Value(name))
		if content == "" {
			return
		}
		lines = append(lines,
			fmt.Sprintf("<section name=%q>", name),
			content,
			"</section>",
			"")
	}

	for _, name := range canonicalSectionOrder {
		if sections.Has(name) {
			emit(name)
		}
	}
	for _, name := range sections.Keys() {
		emit(name)
	}

	return strings.Join(lines, "\n")
}

// xmlOutputInstructions is the shared tail of every composition prompt,
// pinning the tagged output format the section parser expects.
const xmlOutputInstructions = `OUTPUT FORMAT - CRITICAL:
Use XML-style tags to mark sections. These tags are for parsing only and will NOT appear in the final article.

Format your output EXACTLY like this example:

<headline>The Future of Hardware Prototyping</headline>

<section name="opening">
Every hardware engineer has a ghost story. It's the "reality gap" that gut-punch moment when months of perfect digital simulation meet the messy physics of the real world.
</section>

<section name="the_story">
The Physical Twin approach is a massive pivot in how we build things. We've spent the last decade obsessed with Digital Twins, virtual clones used to monitor machines that already exist. But the Physical Twin is different.
</section>

CRITICAL FORMATTING RULES:
- Use <headline>content</headline> for the headline
- Use <section name="section_name">content</section> for each section
- NO markdown headers (## or #) in the article body
- NO bullet points or lists - write in flowing paragraphs
- Avoid bold/italics unless absolutely necessary
- Write as one continuous narrative that flows smoothly from section to section
- Each section's content should flow naturally into the next section`
