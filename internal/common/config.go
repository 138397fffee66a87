package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/scribo/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	LLM         LLMConfig        `toml:"llm"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	Perplexity  PerplexityConfig `toml:"perplexity"`
	Search      SearchConfig     `toml:"search"`
	Article     ArticleConfig    `toml:"article"`
	Humanizer   HumanizerConfig  `toml:"humanizer"`
	Output      OutputConfig     `toml:"output"`
	Cache       CacheConfig      `toml:"cache"`
	Fetcher     FetcherConfig    `toml:"fetcher"`
	Templates   TemplatesConfig  `toml:"templates"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderPerplexity uses Perplexity chat completions API
	LLMProviderPerplexity LLMProvider = "perplexity"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Provider used when the model string carries no prefix
	Model           string      `toml:"model"`            // Model override for all pipeline stages (empty = provider default)
	Temperature     float32     `toml:"temperature"`      // Completion temperature (default: 0.7)
	MaxTokens       int         `toml:"max_tokens"`       // Maximum tokens in response (default: 8192)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for generation (default: "gemini-2.5-flash")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for generation (default: "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// PerplexityConfig contains Perplexity API configuration
type PerplexityConfig struct {
	APIKey    string `toml:"api_key"`    // Perplexity API key
	Model     string `toml:"model"`      // Model for generation (default: "sonar-pro")
	BaseURL   string `toml:"base_url"`   // API base URL (default: "https://api.perplexity.ai")
	RateLimit string `toml:"rate_limit"` // Minimum time between requests (default: "1s")
}

// SearchConfig contains web search provider configuration
type SearchConfig struct {
	Provider       string             `toml:"provider"`        // "exa", "google", or "disabled"
	MaxResults     int                `toml:"max_results" validate:"gt=0,lte=100"` // Maximum sources kept after dedup
	IncludeDomains []string           `toml:"include_domains"` // Restrict search to these domains (provider support varies)
	RequestTimeout string             `toml:"request_timeout"` // HTTP request timeout (default: "30s")
	Exa            ExaSearchConfig    `toml:"exa"`
	Google         GoogleSearchConfig `toml:"google"`
}

// ExaSearchConfig contains Exa search API configuration
type ExaSearchConfig struct {
	APIKey  string `toml:"api_key"`  // Exa API key
	BaseURL string `toml:"base_url"` // API base URL (default: "https://api.exa.ai")
}

// GoogleSearchConfig contains Google Custom Search configuration
type GoogleSearchConfig struct {
	APIKey   string `toml:"api_key"`   // Google API key
	EngineID string `toml:"engine_id"` // Programmable Search Engine ID (cx)
}

// ArticleConfig contains article generation defaults
type ArticleConfig struct {
	MediaType      string `toml:"media_type"`                                  // Template name, e.g. "news_article"
	Length         string `toml:"length" validate:"oneof=short medium long"`   // Target length band
	IncludeSources bool   `toml:"include_sources"`                             // Append formatted sources block
}

// HumanizerConfig contains humanization pass configuration
type HumanizerConfig struct {
	Enabled   bool   `toml:"enabled"`   // Run humanization passes after editing
	Passes    int    `toml:"passes"`    // Number of passes, clamped to 1-3 at runtime
	Intensity string `toml:"intensity"` // "low", "medium", or "high"
}

// OutputConfig contains article output configuration
type OutputConfig struct {
	Directory        string `toml:"directory"`         // Directory for generated articles
	FilenameTemplate string `toml:"filename_template"` // Template with {date}, {topic}, {media_type} placeholders
	Format           string `toml:"format"`            // "markdown" (default)
}

// CacheConfig contains research cache configuration
type CacheConfig struct {
	Enabled   bool   `toml:"enabled"`   // Cache research results on disk
	Directory string `toml:"directory"` // Cache directory (default: ".research_cache")
}

// FetcherConfig contains source page enrichment configuration
type FetcherConfig struct {
	Enabled        bool   `toml:"enabled"`         // Fetch top source pages for full-text enrichment
	TopN           int    `toml:"top_n"`           // Number of sources to fetch (default: 3)
	RequestTimeout string `toml:"request_timeout"` // HTTP request timeout (default: "20s")
	MaxBodySize    int    `toml:"max_body_size"`   // Maximum response body size in bytes
	UserAgent      string `toml:"user_agent"`      // User agent for page fetches
}

// TemplatesConfig contains configuration for media type template files
type TemplatesConfig struct {
	Dir string `toml:"dir"` // Directory containing template files (TOML/YAML), overrides embedded defaults
}

// StorageConfig contains persistent article storage configuration
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			Temperature:     0.7,
			MaxTokens:       8192,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			RateLimit:   "4s",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Temperature: 0.7,
		},
		Perplexity: PerplexityConfig{
			Model:     "sonar-pro",
			BaseURL:   "https://api.perplexity.ai",
			RateLimit: "1s",
		},
		Search: SearchConfig{
			Provider:       "exa",
			MaxResults:     10,
			RequestTimeout: "30s",
			Exa: ExaSearchConfig{
				BaseURL: "https://api.exa.ai",
			},
		},
		Article: ArticleConfig{
			MediaType:      "news_article",
			Length:         "medium",
			IncludeSources: true,
		},
		Humanizer: HumanizerConfig{
			Enabled:   true,
			Passes:    2,
			Intensity: "medium",
		},
		Output: OutputConfig{
			Directory:        "./articles",
			FilenameTemplate: "{date}-{topic}-{media_type}.md",
			Format:           "markdown",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: ".research_cache",
		},
		Fetcher: FetcherConfig{
			Enabled:        false,
			TopN:           3,
			RequestTimeout: "20s",
			MaxBodySize:    2 * 1024 * 1024,
			UserAgent:      "scribo/1.0",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/scribo",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCRIBO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// LLM configuration
	if provider := os.Getenv("SCRIBO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if model := os.Getenv("SCRIBO_LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}

	// Search configuration
	if provider := os.Getenv("SCRIBO_SEARCH_PROVIDER"); provider != "" {
		config.Search.Provider = provider
	}
	if maxResults := os.Getenv("SCRIBO_SEARCH_MAX_RESULTS"); maxResults != "" {
		if mr, err := strconv.Atoi(maxResults); err == nil {
			config.Search.MaxResults = mr
		}
	}

	// Article configuration
	if mediaType := os.Getenv("SCRIBO_ARTICLE_MEDIA_TYPE"); mediaType != "" {
		config.Article.MediaType = mediaType
	}
	if length := os.Getenv("SCRIBO_ARTICLE_LENGTH"); length != "" {
		config.Article.Length = length
	}

	// Humanizer configuration
	if enabled := os.Getenv("SCRIBO_HUMANIZER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Humanizer.Enabled = e
		}
	}
	if passes := os.Getenv("SCRIBO_HUMANIZER_PASSES"); passes != "" {
		if p, err := strconv.Atoi(passes); err == nil {
			config.Humanizer.Passes = p
		}
	}

	// Output configuration
	if dir := os.Getenv("SCRIBO_OUTPUT_DIR"); dir != "" {
		config.Output.Directory = dir
	}

	// Cache configuration
	if dir := os.Getenv("SCRIBO_CACHE_DIR"); dir != "" {
		config.Cache.Directory = dir
	}
	if enabled := os.Getenv("SCRIBO_CACHE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Cache.Enabled = e
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("SCRIBO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("SCRIBO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SCRIBO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// FlagOverrides carries command-line values that take priority over config
// files and environment variables
type FlagOverrides struct {
	MediaType  string
	Length     string
	Model      string
	Provider   string
	OutputDir  string
	NoCache    bool
	NoHumanize bool
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, flags FlagOverrides) {
	if flags.MediaType != "" {
		config.Article.MediaType = flags.MediaType
	}
	if flags.Length != "" {
		config.Article.Length = flags.Length
	}
	if flags.Model != "" {
		config.LLM.Model = flags.Model
	}
	if flags.Provider != "" {
		config.Search.Provider = flags.Provider
	}
	if flags.OutputDir != "" {
		config.Output.Directory = flags.OutputDir
	}
	if flags.NoCache {
		config.Cache.Enabled = false
	}
	if flags.NoHumanize {
		config.Humanizer.Enabled = false
	}
}

// Validate checks struct-level constraints on the loaded configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("config validation setup failed: %w", err)
		}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return NewConfigurationError(fe.Namespace(), fmt.Sprintf("failed %q constraint", fe.Tag()))
		}
		return err
	}
	return nil
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> KV store -> config fallback -> error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	// Environment variables have highest priority
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":     {"SCRIBO_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key":  {"SCRIBO_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"claude_api_key":     {"SCRIBO_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"perplexity_api_key": {"SCRIBO_PERPLEXITY_API_KEY", "PERPLEXITY_API_KEY"},
		"exa_api_key":        {"SCRIBO_EXA_API_KEY", "EXA_API_KEY"},
		"google_api_key":     {"SCRIBO_GOOGLE_API_KEY", "GOOGLE_API_KEY"},
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Try to resolve from KV store (medium priority)
	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	// Fallback to config value (lowest priority)
	if configFallback != "" {
		return configFallback, nil
	}

	return "", NewConfigurationError(name, "API key not found in environment, KV store, or config")
}
