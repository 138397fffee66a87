package search

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
)

// NewProvider creates the configured search provider. Unknown provider names
// are a configuration error, not a silent default.
func NewProvider(ctx context.Context, config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.SearchProvider, error) {
	switch config.Search.Provider {
	case "exa":
		apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "exa_api_key", config.Search.Exa.APIKey)
		if err != nil {
			return nil, err
		}
		return NewExaService(&config.Search, apiKey, logger), nil

	case "google":
		apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "google_api_key", config.Search.Google.APIKey)
		if err != nil {
			return nil, err
		}
		if config.Search.Google.EngineID == "" {
			return nil, common.NewConfigurationError("search.google.engine_id", "Google Custom Search requires an engine ID")
		}
		return NewGoogleService(&config.Search, apiKey, logger), nil

	case "disabled":
		return NewDisabledService(logger), nil

	default:
		return nil, common.NewConfigurationError("search.provider", "unknown provider: "+config.Search.Provider)
	}
}
