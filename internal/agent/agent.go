package agent

import (
	"context"
	"fmt"

	"codeberg.org/algrv/codelab/internal/llm"
	"codeberg.org/algrv/codelab/internal/logger"
	"codeberg.org/algrv/codelab/internal/tools"
)

func New(model llm.ChatModel, registry *tools.Registry) *Agent {
	return &Agent{
		model:  model,
		tools:  registry,
		prompt: NewPrompt(),
	}
}

// Run sends the generation prompt once, dispatches any requested tools in
// order and appends the reply plus tool results to the transcript. The
// model never sees earlier transcript entries. On any error the transcript
// is left untouched.
func (a *Agent) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if req.Transcript == nil {
		return nil, fmt.Errorf("transcript is required")
	}

	promptMessages, err := a.prompt.Format(req.Selection)
	if err != nil {
		return nil, err
	}

	response, err := a.model.Chat(ctx, llm.ChatRequest{
		Messages:     toLLMMessages(promptMessages),
		Tools:        a.toolDefinitions(),
		Strict:       true,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	appended := []Message{{
		Role:      llm.RoleAssistant,
		Content:   response.Content,
		ToolCalls: response.ToolCalls,
	}}

	var skipped []SkippedToolCall

	for _, call := range response.ToolCalls {
		tool, ok := a.tools.Lookup(call.Name)
		if !ok {
			logger.Warn("model requested unknown tool",
				"tool", call.Name,
				"tool_call_id", call.ID,
			)

			skipped = append(skipped, SkippedToolCall{
				ID:     call.ID,
				Name:   call.Name,
				Reason: "tool not registered",
			})

			continue
		}

		result, err := tool.Invoke(ctx, call.Arguments)
		if err != nil {
			return nil, fmt.Errorf("tool %s failed: %w", call.Name, err)
		}

		appended = append(appended, Message{
			Role:       llm.RoleTool,
			Content:    result,
			ToolCallID: call.ID,
			Name:       call.Name,
		})
	}

	req.Transcript.Append(appended...)

	artifacts, err := ParseArtifacts(response.Content)
	if err != nil {
		logger.Debug("reply did not match artifact contract", "error", err)
	}

	return &RunResult{
		Appended:         appended,
		SkippedToolCalls: skipped,
		Artifacts:        artifacts,
		Model:            a.model.Model(),
		Usage:            response.Usage,
	}, nil
}

func (a *Agent) toolDefinitions() []llm.ToolDefinition {
	list := a.tools.List()
	defs := make([]llm.ToolDefinition, 0, len(list))

	for _, t := range list {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}

	return defs
}

func toLLMMessages(msgs []Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))

	for _, m := range msgs {
		out = append(out, llm.Message{
			Role:       m.Role,
			Content:    m.Content,
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		})
	}

	return out
}
