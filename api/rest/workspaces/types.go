package workspaces

import (
	"context"

	"codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/catalog"
	"codeberg.org/algrv/codelab/internal/sandbox"
	"codeberg.org/algrv/codelab/internal/workspace"
)

// maximum size of a file written through the API
const maxFileSize = 256 * 1024

// owns the live workspaces
type Manager interface {
	Create(ctx context.Context) (*workspace.Workspace, error)
	Get(id string) (*workspace.Workspace, bool)
	Delete(ctx context.Context, id string) error
}

// disconnects realtime clients of a deleted workspace
type Closer interface {
	CloseWorkspace(workspaceID, reason string)
}

type WorkspaceResponse struct {
	Workspace workspace.View `json:"workspace"`
	Token     string         `json:"token,omitempty"`
}

type ExportParams struct {
	Format string `form:"format" binding:"omitempty,oneof=zip tar"`
}

type SetLanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

type SetFrameworkRequest struct {
	Framework string `json:"framework" binding:"required"`
}

type SelectionResponse struct {
	Selection catalog.Selection `json:"selection"`
	Options   []string          `json:"framework_options"`
}

type FileResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type WriteFileRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

type DirResponse struct {
	Path    string             `json:"path"`
	Entries []sandbox.DirEntry `json:"entries"`
}

type ExecuteResponse struct {
	State      workspace.State `json:"state"`
	PreviewURL string          `json:"preview_url"`
}

// one transcript message with its artifacts ready for display
type TranscriptEntry struct {
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Name      string             `json:"name,omitempty"`
	Artifacts []RenderedArtifact `json:"artifacts,omitempty"`
}

type RenderedArtifact struct {
	agent.Artifact
	DescriptionHTML string `json:"description_html"`
}

type TranscriptResponse struct {
	Entries []TranscriptEntry `json:"entries"`
}
