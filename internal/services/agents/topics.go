package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
)

// maxExtractedTopics caps how many research topics come out of one article
const maxExtractedTopics = 5

// TopicExtractor pulls researchable topics out of an existing article so
// sources can be found for it after the fact.
type TopicExtractor struct {
	generator interfaces.Generator
	logger    arbor.ILogger
}

func NewTopicExtractor(generator interfaces.Generator, logger arbor.ILogger) *TopicExtractor {
	return &TopicExtractor{generator: generator, logger: logger}
}

// ExtractTopics returns up to five searchable research topics for the
// article text. Falls back to the article title on LLM failure; an empty
// slice means nothing usable was found.
func (e *TopicExtractor) ExtractTopics(ctx context.Context, articleText string) []string {
	if strings.TrimSpace(articleText) == "" {
		e.logger.Warn().Msg("Empty article text provided for topic extraction")
		return nil
	}

	prompt := e.buildPrompt(articleText)

	response, err := e.generator.Generate(ctx, &interfaces.GenerateRequest{Prompt: prompt, MaxTokens: 2000})
	if err != nil {
		e.logger.Warn().Err(err).Msg("Topic extraction failed, using article title fallback")
		return fallbackTopics(articleText)
	}

	topics := parseTopics(response)
	e.logger.Info().Int("count", len(topics)).Msg("Extracted research topics")
	return topics
}

func (e *TopicExtractor) buildPrompt(articleText string) string {
	if len(articleText) > 8000 {
		articleText = articleText[:8000]
	}

	return fmt.Sprintf(`You are an expert research analyst. Your task is to identify the key research topics, concepts, and claims mentioned in the following article that would benefit from academic or professional sources.

ARTICLE TEXT:
%s

TASK:
Extract 3-5 key research topics or concepts from this article that would need sources or citations. Focus on:
1. Main concepts/theories mentioned
2. Technologies/frameworks referenced
3. Research areas discussed
4. Key claims that need supporting sources

OUTPUT FORMAT:
Return only the topics, one per line, without numbering, bullets, or additional text.
Each topic should be a concise, searchable research query (2-8 words).
Make topics specific enough to find relevant academic or professional sources.

Example output format:
Digital Twin Prototypes
Physical Twin methodology
sim-to-real gap in autonomous systems
hardware-software integration prototyping
human-machine interaction validation

Extract the research topics now:
`, articleText)
}

// topicPrefixes are list markers stripped from LLM output lines
var topicPrefixes = []string{"- ", "* ", "1. ", "2. ", "3. ", "4. ", "5. "}

func parseTopics(response string) []string {
	if strings.TrimSpace(response) == "" {
		return nil
	}

	var topics []string
	for _, line := range strings.Split(response, "\n") {
		cleaned := strings.TrimSpace(line)
		if cleaned == "" {
			continue
		}
		for _, prefix := range topicPrefixes {
			if strings.HasPrefix(cleaned, prefix) {
				cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
			}
		}
		cleaned = strings.TrimRight(cleaned, ".,;:")
		if len(cleaned) < 5 {
			continue
		}
		lower := strings.ToLower(cleaned)
		if strings.HasPrefix(lower, "example") || strings.HasPrefix(lower, "output") ||
			strings.HasPrefix(lower, "format") || strings.HasPrefix(lower, "task:") ||
			strings.HasPrefix(lower, "note:") {
			continue
		}
		topics = append(topics, cleaned)
		if len(topics) == maxExtractedTopics {
			break
		}
	}

	if len(topics) == 0 {
		for _, separator := range []string{";", "|"} {
			if strings.Contains(response, separator) {
				for _, part := range strings.Split(response, separator) {
					part = strings.TrimSpace(part)
					if len(part) > 5 {
						topics = append(topics, part)
					}
					if len(topics) == maxExtractedTopics {
						break
					}
				}
				break
			}
		}
	}

	return topics
}

// fallbackTopics derives a single topic from the article title or its first
// substantial line
func fallbackTopics(articleText string) []string {
	for _, line := range strings.Split(articleText, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			title := strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(line, "# "), "**", ""))
			if len(title) > 10 {
				if len(title) > 100 {
					title = title[:100]
				}
				return []string{title}
			}
		} else if line != "" && len(line) > 20 && !strings.HasPrefix(line, "#") {
			words := strings.Fields(line)
			if len(words) > 15 {
				words = words[:15]
			}
			return []string{strings.Join(words, " ")}
		}
	}
	return nil
}
