package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/ternarybob/scribo/internal/services/agents"
	"github.com/ternarybob/scribo/internal/services/cache"
	"github.com/ternarybob/scribo/internal/services/export"
	"github.com/ternarybob/scribo/internal/services/fetcher"
	"github.com/ternarybob/scribo/internal/services/llm"
	"github.com/ternarybob/scribo/internal/services/parser"
	"github.com/ternarybob/scribo/internal/services/pipeline"
	"github.com/ternarybob/scribo/internal/services/research"
	"github.com/ternarybob/scribo/internal/services/search"
	"github.com/ternarybob/scribo/internal/services/templates"
	"github.com/ternarybob/scribo/internal/storage/badger"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	mediaType    = flag.String("media-type", "", "Media type template (overrides config)")
	length       = flag.String("length", "", "Article length: short, medium, long (overrides config)")
	model        = flag.String("model", "", "LLM model for all stages (overrides config)")
	searchProv   = flag.String("search-provider", "", "Search provider: exa, google, disabled (overrides config)")
	outputDir    = flag.String("output", "", "Output directory for generated articles (overrides config)")
	contextFile  = flag.String("context", "", "JSON file with user context about the caller's own work")
	refresh      = flag.Bool("refresh", false, "Bypass the research cache for this run")
	noCache      = flag.Bool("no-cache", false, "Disable the research cache entirely")
	noHumanize   = flag.Bool("no-humanize", false, "Skip humanization passes")
	clearCache   = flag.Bool("clear-cache", false, "Clear all cached research and exit")
	findSources  = flag.String("find-sources", "", "Find sources for an existing article file and exit")
	sourcesOut   = flag.String("sources-output", "", "Output path for -find-sources (default: <article>-sources.md)")
	listArticles = flag.Bool("list", false, "List recently generated articles and exit")
	exportFormat = flag.String("export", "", "Export a stored article: pdf or html")
	articleID    = flag.String("id", "", "Article ID for -export (default: most recent)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Scribo version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("scribo.toml"); err == nil {
			configFiles = append(configFiles, "scribo.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, common.FlagOverrides{
		MediaType:  *mediaType,
		Length:     *length,
		Model:      *model,
		Provider:   *searchProv,
		OutputDir:  *outputDir,
		NoCache:    *noCache,
		NoHumanize: *noHumanize,
	})

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	ctx := context.Background()

	if *clearCache {
		cacheService := cache.NewService(config.Cache.Directory, logger)
		cacheService.Clear()
		fmt.Println("Research cache cleared")
		return
	}

	app, err := buildApp(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer app.Close()

	switch {
	case *listArticles:
		err = runList(app)
	case *exportFormat != "":
		err = runExport(app)
	case *findSources != "":
		err = runFindSources(ctx, app)
	default:
		err = runGenerate(ctx, app)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// application holds the wired services for one invocation
type application struct {
	pipeline *pipeline.Service
	export   *export.Service
	llm      *llm.Service
	storage  interfaces.StorageManager
}

func (a *application) Close() {
	if a.llm != nil {
		a.llm.Close()
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}

func buildApp(ctx context.Context) (*application, error) {
	// Article storage is best-effort: generation still works without it
	var storageManager interfaces.StorageManager
	var kvStorage interfaces.KeyValueStorage
	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Warn().Err(err).Str("path", config.Storage.Badger.Path).Msg("Article storage unavailable, continuing without persistence")
		storageManager = nil
	} else {
		kvStorage = storageManager.KeyValueStorage()
	}

	llmService := llm.NewService(config, kvStorage, logger)

	searchProvider, err := search.NewProvider(ctx, config, kvStorage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create search provider: %w", err)
	}

	var researchCache interfaces.ResearchCache
	if config.Cache.Enabled {
		researchCache = cache.NewService(config.Cache.Directory, logger)
	}

	var enricher research.Enricher
	if config.Fetcher.Enabled {
		enricher = fetcher.NewService(&config.Fetcher, logger)
	}

	templateService, err := templates.NewService(&config.Templates, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	sectionParser := parser.NewService(logger)
	researchService := research.NewService(llmService, searchProvider, researchCache, enricher, logger)

	pipelineService := pipeline.NewService(config, pipeline.Deps{
		Research:         researchService,
		Writer:           agents.NewWriter(llmService, sectionParser, logger),
		Editor:           agents.NewEditor(llmService, sectionParser, logger),
		Humanizer:        agents.NewHumanizer(llmService, sectionParser, config.Humanizer.Enabled, config.Humanizer.Passes, config.Humanizer.Intensity, logger),
		SourcesFormatter: agents.NewSourcesFormatter(llmService, logger),
		TopicExtractor:   agents.NewTopicExtractor(llmService, logger),
		Templates:        templateService,
		Storage:          storageManager,
	}, logger)

	return &application{
		pipeline: pipelineService,
		export:   export.NewService(logger),
		llm:      llmService,
		storage:  storageManager,
	}, nil
}

func runGenerate(ctx context.Context, app *application) error {
	topic := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if topic == "" {
		flag.Usage()
		return fmt.Errorf("no topic provided")
	}

	userContext, err := loadUserContext(*contextFile)
	if err != nil {
		return err
	}

	article, err := app.pipeline.Generate(ctx, &models.GenerateRequest{
		Topic:       topic,
		MediaType:   config.Article.MediaType,
		Length:      config.Article.Length,
		UserContext: userContext,
		Refresh:     *refresh,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Article generated: %s\n", article.FilePath)
	fmt.Printf("  Headline: %s\n", article.Headline)
	fmt.Printf("  Sources:  %d\n", article.SourceCount)
	return nil
}

func runFindSources(ctx context.Context, app *application) error {
	outputPath, err := app.pipeline.FindSources(ctx, *findSources, *sourcesOut)
	if err != nil {
		return err
	}
	fmt.Printf("Sources written: %s\n", outputPath)
	return nil
}

func runList(app *application) error {
	articles, err := app.pipeline.ListArticles(20)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Println("No articles stored")
		return nil
	}
	for _, a := range articles {
		fmt.Printf("%s  %s  %-16s  %s\n", a.ID, a.CreatedAt.Format("2006-01-02 15:04"), a.MediaType, a.Headline)
	}
	return nil
}

func runExport(app *application) error {
	format := strings.ToLower(*exportFormat)
	if format != "pdf" && format != "html" {
		return fmt.Errorf("unsupported export format: %s (want pdf or html)", format)
	}

	article, err := resolveArticle(app)
	if err != nil {
		return err
	}

	title := article.Headline
	if title == "" {
		title = article.Topic
	}

	var data []byte
	if format == "pdf" {
		data, err = app.export.MarkdownToPDF(article.Markdown, title)
	} else {
		data, err = app.export.MarkdownToHTML(article.Markdown, title)
	}
	if err != nil {
		return err
	}

	outputPath := exportPath(article, format)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Printf("Exported %s: %s\n", format, outputPath)
	return nil
}

// resolveArticle loads the article named by -id, or the most recent one
func resolveArticle(app *application) (*models.Article, error) {
	if *articleID != "" {
		return app.pipeline.GetArticle(*articleID)
	}
	articles, err := app.pipeline.ListArticles(1)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("no stored articles to export")
	}
	return articles[0], nil
}

// exportPath derives the export file path from the article's markdown path,
// falling back to the configured output directory and article ID.
func exportPath(article *models.Article, format string) string {
	if article.FilePath != "" {
		ext := filepath.Ext(article.FilePath)
		return strings.TrimSuffix(article.FilePath, ext) + "." + format
	}
	return filepath.Join(config.Output.Directory, article.ID+"."+format)
}

// loadUserContext reads a JSON user context file if one was given
func loadUserContext(path string) (*models.UserContext, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read context file %s: %w", path, err)
	}
	var userContext models.UserContext
	if err := json.Unmarshal(data, &userContext); err != nil {
		return nil, fmt.Errorf("failed to parse context file %s: %w", path, err)
	}
	return &userContext, nil
}
