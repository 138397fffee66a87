package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/ternarybob/scribo/internal/services/agents"
	"github.com/ternarybob/scribo/internal/services/research"
	"github.com/ternarybob/scribo/internal/services/templates"
)

// Service orchestrates the full article pipeline: research, write, edit,
// humanize, source formatting, and document assembly. Research and writing
// failures abort the run; every later stage degrades to the previous
// stage's output.
type Service struct {
	config           *common.Config
	research         *research.Service
	writer           *agents.Writer
	editor           *agents.Editor
	humanizer        *agents.Humanizer
	sourcesFormatter *agents.SourcesFormatter
	topicExtractor   *agents.TopicExtractor
	templates        *templates.Service
	storage          interfaces.StorageManager
	logger           arbor.ILogger
}

// Deps collects the pipeline's collaborators. Storage may be nil when
// article persistence is not configured.
type Deps struct {
	Research         *research.Service
	Writer           *agents.Writer
	Editor           *agents.Editor
	Humanizer        *agents.Humanizer
	SourcesFormatter *agents.SourcesFormatter
	TopicExtractor   *agents.TopicExtractor
	Templates        *templates.Service
	Storage          interfaces.StorageManager
}

func NewService(config *common.Config, deps Deps, logger arbor.ILogger) *Service {
	return &Service{
		config:           config,
		research:         deps.Research,
		writer:           deps.Writer,
		editor:           deps.Editor,
		humanizer:        deps.Humanizer,
		sourcesFormatter: deps.SourcesFormatter,
		topicExtractor:   deps.TopicExtractor,
		templates:        deps.Templates,
		storage:          deps.Storage,
		logger:           logger,
	}
}

// Generate runs the full pipeline for a topic and writes the finished
// document to the output directory.
func (s *Service) Generate(ctx context.Context, req *models.GenerateRequest) (*models.Article, error) {
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = s.config.Article.MediaType
	}
	length := req.Length
	if length == "" {
		length = s.config.Article.Length
	}

	if err := validateTopic(req.Topic); err != nil {
		return nil, err
	}
	if err := validateMediaType(mediaType, s.templates.Names()); err != nil {
		return nil, err
	}
	if err := validateLength(length); err != nil {
		return nil, err
	}
	if err := validateMaxResults(s.config.Search.MaxResults); err != nil {
		return nil, err
	}

	tmpl, err := s.templates.Get(mediaType)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("topic", req.Topic).
		Str("media_type", mediaType).
		Str("length", length).
		Msg("Generating article")

	// Step 1: research. The one stage whose failure aborts the run.
	researchResult, err := s.research.Run(ctx, req.Topic, req.UserContext, research.Options{
		MaxResults: s.config.Search.MaxResults,
		Refresh:    req.Refresh,
		UseCache:   s.config.Cache.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("research failed: %w", err)
	}
	s.logger.Info().Int("sources", len(researchResult.Sources)).Bool("cached", researchResult.FromCache).Msg("Research complete")

	// Step 2: write
	sections, err := s.writer.Write(ctx, researchResult, req.Topic, length, tmpl, req.UserContext)
	if err != nil {
		return nil, fmt.Errorf("writing failed: %w", err)
	}
	s.logger.Info().Int("sections", sections.Len()).Msg("Article written")

	// Step 3: edit (degrades to the draft internally)
	sections = s.editor.Edit(ctx, sections, tmpl)

	// Step 4: humanize (degrades to the edited version internally)
	sections = s.humanizer.Humanize(ctx, sections, tmpl)

	// Sources are rendered from research results only, never from prose
	sections.Delete("sources")
	sections.Delete("references")

	markdown := RenderArticle(sections, tmpl, req.Topic)

	if s.config.Article.IncludeSources && len(researchResult.Sources) > 0 {
		sourcesBlock := s.sourcesFormatter.FormatSources(ctx, researchResult.Sources)
		if sourcesBlock != "" {
			markdown += "\n\n" + sourcesBlock
		}
	}

	filePath, err := s.saveDocument(markdown, req.Topic, mediaType)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("path", filePath).Msg("Article saved")

	article := s.buildArticle(req.Topic, mediaType, length, sections, markdown, len(researchResult.Sources), filePath)
	s.persistArticle(article)

	return article, nil
}

// FindSources researches an existing article file and writes a standalone
// sources document next to it. Returns the path of the sources file.
func (s *Service) FindSources(ctx context.Context, articlePath, outputPath string) (string, error) {
	info, err := os.Stat(articlePath)
	if err != nil {
		return "", fmt.Errorf("article file not found: %w", err)
	}
	if info.IsDir() {
		return "", common.NewValidationError("article", fmt.Sprintf("path is a directory, not a file: %s", articlePath))
	}
	if info.Size() == 0 {
		return "", common.NewValidationError("article", fmt.Sprintf("article file is empty: %s", articlePath))
	}

	data, err := os.ReadFile(articlePath)
	if err != nil {
		return "", fmt.Errorf("failed to read article file: %w", err)
	}
	articleText := string(data)
	if strings.TrimSpace(articleText) == "" {
		return "", common.NewValidationError("article", fmt.Sprintf("article file contains only whitespace: %s", articlePath))
	}

	topics := s.topicExtractor.ExtractTopics(ctx, articleText)
	if len(topics) == 0 {
		topics = []string{articleTitleFallback(articleText, articlePath)}
		s.logger.Warn().Str("topic", topics[0]).Msg("No topics extracted, using article title as fallback")
	}
	s.logger.Info().Int("topics", len(topics)).Msg("Extracted research topics")

	var allSources []models.SourceRecord
	seen := make(map[string]bool)
	for i, topic := range topics {
		result, err := s.research.Run(ctx, topic, nil, research.Options{
			MaxResults: s.config.Search.MaxResults,
			UseCache:   s.config.Cache.Enabled,
		})
		if err != nil {
			s.logger.Warn().Int("topic", i+1).Err(err).Msg("Topic research failed, skipping")
			continue
		}
		for _, source := range result.Sources {
			if source.URL == "" || seen[source.URL] {
				continue
			}
			seen[source.URL] = true
			allSources = append(allSources, source)
		}
	}
	s.logger.Info().Int("sources", len(allSources)).Msg("Collected unique sources")

	sourcesMarkdown := "## Sources\n\nNo sources found."
	if len(allSources) > 0 {
		sourcesMarkdown = s.sourcesFormatter.FormatSources(ctx, allSources)
	}

	outputFile := outputPath
	if outputFile == "" {
		stem := strings.TrimSuffix(filepath.Base(articlePath), filepath.Ext(articlePath))
		outputFile = filepath.Join(filepath.Dir(articlePath), stem+"-sources.md")
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(sourcesMarkdown), 0o644); err != nil {
		return "", fmt.Errorf("failed to write sources file: %w", err)
	}

	return outputFile, nil
}

// ListArticles returns the most recently stored articles
func (s *Service) ListArticles(limit int) ([]*models.Article, error) {
	if s.storage == nil {
		return nil, nil
	}
	return s.storage.ArticleStorage().ListArticles(limit)
}

// GetArticle loads one stored article by ID
func (s *Service) GetArticle(id string) (*models.Article, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("article storage is not configured")
	}
	return s.storage.ArticleStorage().GetArticle(id)
}

func (s *Service) saveDocument(markdown, topic, mediaType string) (string, error) {
	outputDir := s.config.Output.Directory
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := GenerateFilename(s.config.Output.FilenameTemplate, topic, mediaType)
	filePath := filepath.Join(outputDir, filename)

	if err := os.WriteFile(filePath, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("failed to write article file: %w", err)
	}
	return filePath, nil
}

func (s *Service) buildArticle(topic, mediaType, length string, sections *models.SectionMap, markdown string, sourceCount int, filePath string) *models.Article {
	sectionContents := make(map[string]string, sections.Len())
	for _, name := range sections.Keys() {
		sectionContents[name] = sections.Value(name)
	}

	headline := sections.Value("headline")
	if headline == "" {
		headline = sections.Value("title")
	}

	now := time.Now()
	return &models.Article{
		ID:          models.NewArticleID(),
		Topic:       topic,
		MediaType:   mediaType,
		Length:      length,
		Headline:    headline,
		Markdown:    markdown,
		Sections:    sectionContents,
		SourceCount: sourceCount,
		FilePath:    filePath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// persistArticle stores the article when a backend is configured. Storage
// trouble never fails a run that already produced a document.
func (s *Service) persistArticle(article *models.Article) {
	if s.storage == nil {
		return
	}
	if err := s.storage.ArticleStorage().SaveArticle(article); err != nil {
		s.logger.Warn().Str("id", article.ID).Err(err).Msg("Failed to persist article")
		return
	}
	s.logger.Debug().Str("id", article.ID).Msg("Article persisted")
}

// articleTitleFallback derives a topic from the first heading or the
// filename stem
func articleTitleFallback(articleText, articlePath string) string {
	firstLine := strings.TrimSpace(strings.SplitN(articleText, "\n", 2)[0])
	if strings.HasPrefix(firstLine, "#") {
		title := strings.TrimSpace(strings.ReplaceAll(strings.TrimLeft(firstLine, "# "), "*", ""))
		if title != "" {
			return title
		}
	}
	return strings.TrimSuffix(filepath.Base(articlePath), filepath.Ext(articlePath))
}
