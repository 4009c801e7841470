package llm

import (
	"fmt"

	"codeberg.org/algrv/codelab/internal/config"
)

// creates a chat model from environment variables
func NewLLM() (ChatModel, error) {
	base, err := config.LoadEnvironmentVariables()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg, err := ConfigFrom(base.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to load LLM config: %w", err)
	}

	return NewLLMWithConfig(cfg)
}

// creates a chat model with explicit configuration
func NewLLMWithConfig(cfg *Config) (ChatModel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIChat(OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}), nil
	case ProviderAnthropic:
		return NewAnthropicChat(AnthropicConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
