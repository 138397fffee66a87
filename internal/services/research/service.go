package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// maxExecutedQueries bounds search API usage per run
const maxExecutedQueries = 3

// maxGeneratedQueries bounds how many LLM-proposed queries are kept
const maxGeneratedQueries = 5

// Enricher fills SourceRecord.Text before synthesis. The fetcher service
// implements it; a nil Enricher skips enrichment.
type Enricher interface {
	EnrichSources(ctx context.Context, sources []models.SourceRecord) []models.SourceRecord
}

// Service runs the research stage: query generation, sequential searches,
// URL dedup, synthesis, and caching. Research failure is the one stage that
// aborts a pipeline run; everything downstream degrades instead.
type Service struct {
	generator interfaces.Generator
	provider  interfaces.SearchProvider
	cache     interfaces.ResearchCache
	enricher  Enricher
	logger    arbor.ILogger
}

// Options adjust one research run
type Options struct {
	MaxResults int
	Refresh    bool // Skip the cache read (the result is still saved)
	UseCache   bool
}

// NewService creates a research service. cache and enricher may be nil.
func NewService(generator interfaces.Generator, provider interfaces.SearchProvider, cache interfaces.ResearchCache, enricher Enricher, logger arbor.ILogger) *Service {
	return &Service{
		generator: generator,
		provider:  provider,
		cache:     cache,
		enricher:  enricher,
		logger:    logger,
	}
}

// Run researches a topic and returns synthesized findings with sources
func (s *Service) Run(ctx context.Context, topic string, userContext *models.UserContext, opts Options) (*models.ResearchResult, error) {
	var cacheKey string
	if s.cache != nil && opts.UseCache {
		cacheKey = s.cache.Key(interfaces.CacheKeyParams{
			Topic:       topic,
			UserContext: userContext,
			Provider:    s.provider.Name(),
			MaxResults:  opts.MaxResults,
		})

		if !opts.Refresh {
			if cached := s.cache.Load(cacheKey); cached != nil {
				s.logger.Info().Str("topic", topic).Msg("Using cached research")
				return cached, nil
			}
		}
	}

	// Step 1: generate search queries
	queries := s.generateSearchQueries(ctx, topic, userContext)

	// Step 2: execute searches sequentially, first maxExecutedQueries only
	toExecute := queries
	if len(toExecute) > maxExecutedQueries {
		toExecute = toExecute[:maxExecutedQueries]
	}

	var allResults []models.SourceRecord
	for i, query := range toExecute {
		s.logger.Info().
			Int("query", i+1).
			Int("total", len(toExecute)).
			Str("text", query).
			Msg("Executing search query")

		results, err := s.provider.Search(ctx, query, opts.MaxResults)
		if err != nil {
			s.logger.Warn().Str("query", query).Err(err).Msg("Search failed for query")
			continue
		}
		allResults = append(allResults, results...)
	}

	// Dedup by URL, first occurrence wins
	seen := make(map[string]bool)
	var unique []models.SourceRecord
	for _, result := range allResults {
		normalized := common.NormalizeURLForDedup(result.URL)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		unique = append(unique, result)
	}

	s.logger.Debug().
		Int("total", len(allResults)).
		Int("unique", len(unique)).
		Msg("Deduplicated sources")

	if len(unique) > opts.MaxResults {
		unique = unique[:opts.MaxResults]
	}

	// Optional full-text enrichment of top sources
	if s.enricher != nil {
		unique = s.enricher.EnrichSources(ctx, unique)
	}

	// Step 3: synthesize findings and context
	var findings, contextText string
	if len(unique) > 0 {
		findings = s.synthesizeFindings(ctx, topic, unique, userContext)
		contextText = s.extractContext(ctx, topic, unique, userContext)
	} else {
		findings = "No relevant information found."
		contextText = fmt.Sprintf("Limited information available about: %s", topic)
		if !userContext.IsEmpty() {
			if userContext.NovelAspect != "" {
				findings = userContext.NovelAspect
			}
			if userContext.TechnologyDetails != "" {
				contextText = userContext.TechnologyDetails
			}
		}
		s.logger.Warn().Str("topic", topic).Msg("No search results found, using fallback context")
	}

	result := &models.ResearchResult{
		Topic:     topic,
		Queries:   queries,
		Sources:   unique,
		Findings:  findings,
		Context:   contextText,
		CreatedAt: time.Now(),
	}

	// Best-effort cache save
	if s.cache != nil && opts.UseCache && cacheKey != "" {
		s.cache.Save(cacheKey, result, interfaces.CacheKeyParams{
			Topic:       topic,
			UserContext: userContext,
			Provider:    s.provider.Name(),
			MaxResults:  opts.MaxResults,
		})
	}

	return result, nil
}

// generateSearchQueries asks the LLM for queries, falling back to the topic
// itself on any trouble
func (s *Service) generateSearchQueries(ctx context.Context, topic string, userContext *models.UserContext) []string {
	contextSection := ""
	if !userContext.IsEmpty() {
		useCases := userContext.UseCases
		if useCases == "" {
			useCases = "Not specified"
		}
		contextSection = fmt.Sprintf(`

IMPORTANT USER CONTEXT:
- Novel Aspect: %s
- Technology Details: %s
- Use Cases: %s

Generate search queries that will help find information related to both the topic AND the user's novel approach.
Include terms from the user context to find relevant research and comparisons.
`, userContext.NovelAspect, userContext.TechnologyDetails, useCases)
	}

	prompt := fmt.Sprintf(`Generate 3-5 effective web search queries to research the following topic.
The queries should be specific, focused, and likely to return relevant academic or professional information.

Topic: %s
%s
Return only the search queries, one per line, without numbering or bullets.
Make queries diverse to cover different aspects of the topic.
`, topic, contextSection)

	response, err := s.generator.Generate(ctx, &interfaces.GenerateRequest{Prompt: prompt})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to generate search queries, using topic as fallback")
		return []string{topic}
	}

	var queries []string
	for _, line := range strings.Split(response, "\n") {
		q := strings.TrimSpace(line)
		if q == "" {
			continue
		}
		// Drop listing artifacts the model produced anyway
		if strings.HasPrefix(q, "1.") || strings.HasPrefix(q, "2.") || strings.HasPrefix(q, "3.") ||
			strings.HasPrefix(q, "-") || strings.HasPrefix(q, "*") {
			continue
		}
		queries = append(queries, q)
	}

	if len(queries) == 0 {
		queries = []string{topic}
	}
	if len(queries) > maxGeneratedQueries {
		queries = queries[:maxGeneratedQueries]
	}

	s.logger.Debug().Int("count", len(queries)).Msg("Generated search queries")
	return queries
}

// synthesizeFindings condenses search results into article-ready findings
func (s *Service) synthesizeFindings(ctx context.Context, topic string, results []models.SourceRecord, userContext *models.UserContext) string {
	resultsText := FormatSourcesForPrompt(results)

	userContextSection := ""
	noteText := ""
	if !userContext.IsEmpty() {
		userContextSection = fmt.Sprintf(`

USER-PROVIDED NOVEL ASPECTS (FOR REFERENCE ONLY):
- Novel Approach: %s
- Technology Details: %s

IMPORTANT: The research findings below represent RELATED WORK by OTHER industry experts and researchers.
These findings show what others in the field are doing in similar or complementary areas.
Do NOT suggest that the user's technology uses, depends on, or is built from these research findings.
Instead, frame these findings as industry context showing what other experts are exploring.
`, userContext.NovelAspect, userContext.TechnologyDetails)
		noteText = "Note how these findings relate to similar areas as the user-provided novel aspects, but keep them distinct as work by others."
	}

	prompt := fmt.Sprintf(`Based on the following search results, synthesize the key findings related to this topic.

Topic: %s
%s
%s

CRITICAL INSTRUCTIONS:
- These search results represent work by OTHER industry experts and researchers, NOT the user's technology
- Synthesize findings as "related work" or "industry context" showing what others in the field are doing
- Frame findings as: "Other researchers have explored...", "Industry experts working in similar areas...", "Related work includes..."
- Do NOT suggest the user's technology uses, depends on, or incorporates these tools/frameworks
- Show what others are doing in similar/complementary areas to provide industry context

Provide a comprehensive summary of the key findings, facts, and relevant information.
Focus on information that would be useful for writing a professional article about this topic.
Be specific and cite which sources mention important points.
%s
`, topic, userContextSection, resultsText, noteText)

	response, err := s.generator.Generate(ctx, &interfaces.GenerateRequest{Prompt: prompt})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to synthesize findings, using snippet fallback")
		var snippets []string
		for i, r := range results {
			if i >= 5 {
				break
			}
			snippets = append(snippets, r.Snippet)
		}
		return strings.Join(snippets, "\n\n")
	}

	return response
}

// extractContext asks for the broader significance of the topic
func (s *Service) extractContext(ctx context.Context, topic string, results []models.SourceRecord, userContext *models.UserContext) string {
	resultsText := FormatSourcesForPrompt(results)

	userContextSection := ""
	noteText := ""
	if !userContext.IsEmpty() {
		useCases := userContext.UseCases
		if useCases == "" {
			useCases = "Not specified"
		}
		userContextSection = fmt.Sprintf(`

USER-PROVIDED CONTEXT (FOR REFERENCE):
- Problem Being Solved: %s
- Use Cases: %s

IMPORTANT: The search results represent work by OTHER industry experts and researchers.
These findings show what others in the field are doing and provide industry context.
`, userContext.ProblemSolved, useCases)
		noteText = "Note how the problem being solved relates to broader industry challenges, but keep the user's approach distinct from the research findings."
	}

	prompt := fmt.Sprintf(`Based on the search results, provide broader context about this topic.
Explain why this topic matters, its significance, and how it fits into the larger field or domain.

Topic: %s
%s
%s

CRITICAL INSTRUCTIONS:
- These search results represent work by OTHER industry experts and researchers, NOT the user's technology
- Extract broader industry context showing what others in the field are doing
- Position findings as "industry context" or "related work by other experts"
- Frame as: "Researchers in this field have explored...", "Industry experts working on similar problems...", "The broader context includes work on..."
- Do NOT suggest the user's technology uses or depends on these research findings
- Provide context that helps readers understand the importance and background of the topic area

Provide context that would help a reader understand the importance and background of this topic.
%s
`, topic, userContextSection, resultsText, noteText)

	response, err := s.generator.Generate(ctx, &interfaces.GenerateRequest{Prompt: prompt})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to extract context, using fallback")
		return fmt.Sprintf("Context about %s based on available sources.", topic)
	}

	return response
}

// FormatSourcesForPrompt renders sources as a numbered block for LLM prompts
func FormatSourcesForPrompt(results []models.SourceRecord) string {
	if len(results) == 0 {
		return "No search results available."
	}

	var lines []string
	lines = append(lines, "Research Sources:", "")

	for i, result := range results {
		lines = append(lines, fmt.Sprintf("%d. **%s**", i+1, result.Title))
		lines = append(lines, fmt.Sprintf("   URL: %s", result.URL))
		if result.Snippet != "" {
			snippet := result.Snippet
			if len(snippet) > 300 {
				snippet = snippet[:300]
			}
			lines = append(lines, fmt.Sprintf("   Summary: %s...", snippet))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
