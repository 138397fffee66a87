package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"google.golang.org/genai"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
	// ProviderPerplexity uses Perplexity chat completions API
	ProviderPerplexity ProviderType = "perplexity"
)

// Service routes generation requests to the configured AI provider. It
// implements interfaces.Generator and lazily creates provider clients on
// first use.
type Service struct {
	config           *common.Config
	kvStorage        interfaces.KeyValueStorage
	logger           arbor.ILogger
	geminiClient     *genai.Client
	claudeClient     anthropic.Client
	claudeAPIKey     string
	perplexityClient *perplexityClient
}

// NewService creates a provider-routing LLM service. kvStorage may be nil;
// API keys then resolve from environment and config only.
func NewService(config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:    config,
		kvStorage: kvStorage,
		logger:    logger,
	}
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-sonnet-4-20250514" -> Claude
// - "claude/claude-sonnet-4-20250514" -> Claude (with prefix)
// - "gemini-2.5-flash" -> Gemini
// - "sonar-pro" -> Perplexity
// - Empty string -> uses default provider from config
func (s *Service) DetectProvider(model string) ProviderType {
	if model == "" {
		return ProviderType(s.config.LLM.DefaultProvider)
	}

	model = strings.ToLower(model)

	// Check for explicit provider prefix
	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}
	if strings.HasPrefix(model, "perplexity/") {
		return ProviderPerplexity
	}

	// Check for model name patterns
	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}
	if strings.HasPrefix(model, "sonar") {
		return ProviderPerplexity
	}

	// Default to configured provider
	return ProviderType(s.config.LLM.DefaultProvider)
}

// NormalizeModel removes provider prefix from model name if present
func (s *Service) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/", "perplexity/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// ProviderName returns the default provider identifier
func (s *Service) ProviderName() string {
	return string(s.DetectProvider(s.config.LLM.Model))
}

// Generate produces text using the provider detected from the request model
func (s *Service) Generate(ctx context.Context, req *interfaces.GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = s.config.LLM.Model
	}
	provider := s.DetectProvider(model)
	model = s.NormalizeModel(model)

	s.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("prompt_len", len(req.Prompt)).
		Msg("Generating content with provider")

	switch provider {
	case ProviderClaude:
		return s.generateWithClaude(ctx, req, model)
	case ProviderPerplexity:
		return s.generateWithPerplexity(ctx, req, model)
	default:
		return s.generateWithGemini(ctx, req, model)
	}
}

// getGeminiClient returns a Gemini client, creating one if necessary
func (s *Service) getGeminiClient(ctx context.Context) (*genai.Client, error) {
	if s.geminiClient != nil {
		return s.geminiClient, nil
	}

	apiKey, err := common.ResolveAPIKey(ctx, s.kvStorage, "gemini_api_key", s.config.Gemini.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Gemini API key: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	s.geminiClient = client
	return client, nil
}

// getClaudeClient returns a Claude client, creating one if necessary
func (s *Service) getClaudeClient(ctx context.Context) (anthropic.Client, error) {
	if s.claudeAPIKey != "" {
		return s.claudeClient, nil
	}

	apiKey, err := common.ResolveAPIKey(ctx, s.kvStorage, "anthropic_api_key", s.config.Claude.APIKey)
	if err != nil {
		return anthropic.Client{}, fmt.Errorf("failed to resolve Anthropic API key: %w", err)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	s.claudeClient = client
	s.claudeAPIKey = apiKey
	return client, nil
}

// generateWithClaude generates content using Claude API
func (s *Service) generateWithClaude(ctx context.Context, req *interfaces.GenerateRequest, model string) (string, error) {
	client, err := s.getClaudeClient(ctx)
	if err != nil {
		return "", common.NewLLMProviderError(string(ProviderClaude), err)
	}

	if model == "" {
		model = s.config.Claude.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.config.Claude.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	temp := req.Temperature
	if temp <= 0 {
		temp = s.config.Claude.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	// Make API call with retry
	var resp *anthropic.Message
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}

		if attempt == retryConfig.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if IsRateLimitError(apiErr) {
			backoff = retryConfig.CalculateBackoff(attempt, 0)
		}

		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", common.NewLLMProviderError(string(ProviderClaude),
			fmt.Errorf("API call failed after %d retries: %w", retryConfig.MaxRetries, apiErr))
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", common.NewLLMProviderError(string(ProviderClaude), fmt.Errorf("empty response"))
	}

	return text.String(), nil
}

// generateWithGemini generates content using Gemini API
func (s *Service) generateWithGemini(ctx context.Context, req *interfaces.GenerateRequest, model string) (string, error) {
	client, err := s.getGeminiClient(ctx)
	if err != nil {
		return "", common.NewLLMProviderError(string(ProviderGemini), err)
	}

	if model == "" {
		model = s.config.Gemini.Model
	}

	temp := req.Temperature
	if temp <= 0 {
		temp = s.config.Gemini.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	// Make API call with retry
	var resp *genai.GenerateContentResponse
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Models.GenerateContent(ctx, model, contents, config)
		if apiErr == nil {
			break
		}

		if attempt == retryConfig.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			apiDelay := ExtractRetryDelay(apiErr)
			backoff = retryConfig.CalculateBackoff(attempt, apiDelay)
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", common.NewLLMProviderError(string(ProviderGemini),
			fmt.Errorf("API call failed after %d retries: %w", retryConfig.MaxRetries, apiErr))
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", common.NewLLMProviderError(string(ProviderGemini), fmt.Errorf("empty response"))
	}

	// Surface safety blocks distinctly; they are not retryable
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", common.NewLLMProviderError(string(ProviderGemini), fmt.Errorf("response blocked by safety filters"))
	}

	responseText := resp.Text()
	if responseText == "" {
		return "", common.NewLLMProviderError(string(ProviderGemini), fmt.Errorf("empty text in response"))
	}

	return responseText, nil
}

// generateWithPerplexity generates content using the Perplexity API
func (s *Service) generateWithPerplexity(ctx context.Context, req *interfaces.GenerateRequest, model string) (string, error) {
	if s.perplexityClient == nil {
		apiKey, err := common.ResolveAPIKey(ctx, s.kvStorage, "perplexity_api_key", s.config.Perplexity.APIKey)
		if err != nil {
			return "", common.NewLLMProviderError(string(ProviderPerplexity), err)
		}
		s.perplexityClient = newPerplexityClient(&s.config.Perplexity, apiKey, s.logger)
	}

	if model == "" {
		model = s.config.Perplexity.Model
	}

	return s.perplexityClient.generate(ctx, req, model)
}

// Close closes all provider clients
func (s *Service) Close() error {
	s.geminiClient = nil
	s.claudeClient = anthropic.Client{}
	s.claudeAPIKey = ""
	s.perplexityClient = nil
	return nil
}
