package interfaces

import "context"

// GenerateRequest is a provider-agnostic content generation request
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	Model        string  // Overrides the configured model when set
	Temperature  float32 // <= 0 falls back to provider config
	MaxTokens    int     // <= 0 falls back to provider config
}

// Generator defines the interface for LLM content generation.
//
// Implementations retry transient failures internally (rate limits, 5xx
// responses) and return an error only when retries are exhausted or the
// response is unusable (empty text, safety block).
type Generator interface {
	// Generate produces text for the request. The returned string is never
	// empty when error is nil.
	Generate(ctx context.Context, req *GenerateRequest) (string, error)

	// ProviderName returns the provider identifier ("gemini", "claude",
	// "perplexity") used for logging and error wrapping.
	ProviderName() string

	// Close releases provider clients
	Close() error
}
