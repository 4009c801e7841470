package llm

import (
	"context"
	"encoding/json"
)

// represents different LLM providers
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatModel sends one chat-completion request and returns the reply.
type ChatModel interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Model() string
}

type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // assistant only
	ToolCallID string     // tool only
	Name       string     // tool only
}

type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition describes a capability offered to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type ChatRequest struct {
	Messages []Message
	Tools    []ToolDefinition
	// require arguments to match the declared schema exactly
	Strict bool
	// ask for a JSON object reply
	JSONResponse bool
	MaxTokens    int
	// nil uses the model config
	Temperature *float32
}

type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// holds configuration for LLM initialization
type Config struct {
	Provider    Provider
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature *float32
}
