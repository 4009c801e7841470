package agent

import (
	agentcore "codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/workspace"
)

// looks up live workspaces
type WorkspaceSource interface {
	Get(id string) (*workspace.Workspace, bool)
}

type RunResponse struct {
	*agentcore.RunResult
	TranscriptLength int `json:"transcript_length"`
}

type ApplyResponse struct {
	*workspace.ApplyResult
	Code string `json:"code"`
}
