package tools

import (
	"context"
	"encoding/json"
)

// Tool is a named capability the model may request during a run.
type Tool interface {
	Name() string
	Description() string
	// JSON schema of the arguments object
	Schema() map[string]any
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry maps tool names to tools. It is built once and never mutated.
type Registry struct {
	byName map[string]Tool
	names  []string
}
