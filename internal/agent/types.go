package agent

import (
	"encoding/json"
	"sync"

	"codeberg.org/algrv/codelab/internal/catalog"
	"codeberg.org/algrv/codelab/internal/llm"
	"codeberg.org/algrv/codelab/internal/tools"
)

// runs one generation request against a chat model and its tools
type Agent struct {
	model  llm.ChatModel
	tools  *tools.Registry
	prompt *Prompt
}

// a single transcript entry
type Message struct {
	Role       llm.Role       `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []llm.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

// Transcript is the append-only record of model responses and tool
// results for one workspace. It is safe for concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

type RunRequest struct {
	Selection  catalog.Selection
	Transcript *Transcript
}

// a requested tool the registry does not know
type SkippedToolCall struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type RunResult struct {
	Appended         []Message         `json:"appended"`
	SkippedToolCalls []SkippedToolCall `json:"skipped_tool_calls,omitempty"`
	Artifacts        []Artifact        `json:"artifacts,omitempty"`
	Model            string            `json:"model"`
	Usage            llm.Usage         `json:"usage"`
}

// one generated file as described by the reply's JSON contract
type Artifact struct {
	Language    string          `json:"language"`
	Params      json.RawMessage `json:"params,omitempty"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	FileName    string          `json:"fileName"`
}

type artifactEnvelope struct {
	Result []Artifact `json:"result"`
}
