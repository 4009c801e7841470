package llm

import (
	"fmt"

	"codeberg.org/algrv/codelab/internal/config"
)

const (
	defaultOpenAIModel    = "gpt-4o"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultMaxTokens      = 4096
	defaultTemperature    = 0.7
)

// derives the chat model configuration from the service config. a missing
// API key is not an error: the provider call fails instead.
func ConfigFrom(base config.LLMConfig) (*Config, error) {
	provider := Provider(base.Provider)
	if provider == "" {
		provider = ProviderOpenAI
	}

	cfg := &Config{
		Provider:    provider,
		APIKey:      getAPIKeyForProvider(provider, base),
		Model:       base.Model,
		BaseURL:     base.BaseURL,
		MaxTokens:   base.MaxTokens,
		Temperature: base.Temperature,
	}

	switch provider {
	case ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = defaultOpenAIModel
		}
	case ProviderAnthropic:
		if cfg.Model == "" {
			cfg.Model = defaultAnthropicModel
		}
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	if cfg.Temperature == nil {
		cfg.Temperature = temperature(defaultTemperature)
	}

	return cfg, nil
}

func temperature(v float32) *float32 {
	return &v
}
