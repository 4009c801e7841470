package llm

import (
	"encoding/json"

	"codeberg.org/algrv/codelab/internal/config"
)

// returns the appropriate API key for the given provider
func getAPIKeyForProvider(provider Provider, base config.LLMConfig) string {
	switch provider {
	case ProviderOpenAI:
		return base.OpenAIKey
	default:
		return base.AnthropicKey
	}
}

// models sometimes return empty argument strings for tools without parameters
func normalizeArguments(raw string) json.RawMessage {
	if raw == "" {
		return json.RawMessage("{}")
	}

	return json.RawMessage(raw)
}
