package main

import (
	"fmt"

	"codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/config"
	"codeberg.org/algrv/codelab/internal/llm"
	"codeberg.org/algrv/codelab/internal/tools"
)

// creates and configures all service clients
func InitializeServices(cfg *config.Config) (*Services, error) {
	llmConfig, err := llm.ConfigFrom(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to load LLM config: %w", err)
	}

	llmClient, err := llm.NewLLMWithConfig(llmConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &Services{
		Agent: agent.New(llmClient, tools.Default()),
		LLM:   llmClient,
	}, nil
}
