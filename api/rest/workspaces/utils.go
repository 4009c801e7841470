package workspaces

import (
	stderrors "errors"
	"io/fs"

	"github.com/gin-gonic/gin"

	"codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/auth"
	"codeberg.org/algrv/codelab/internal/errors"
	"codeberg.org/algrv/codelab/internal/llm"
	"codeberg.org/algrv/codelab/internal/logger"
	"codeberg.org/algrv/codelab/internal/sandbox"
	"codeberg.org/algrv/codelab/internal/web"
	"codeberg.org/algrv/codelab/internal/workspace"
)

// looks up the workspace named by :id, writing a 404 when it is gone
func lookup(c *gin.Context, manager Manager) (*workspace.Workspace, bool) {
	w, ok := manager.Get(c.Param("id"))
	if !ok {
		errors.WorkspaceNotFound(c)
		return nil, false
	}

	return w, true
}

// creates a workspace, issues its token and remembers it in the session
func createWorkspace(c *gin.Context, manager Manager) (*WorkspaceResponse, bool) {
	w, err := manager.Create(c.Request.Context())
	if err != nil {
		errors.InternalError(c, "failed to create workspace", err)
		return nil, false
	}

	token, err := auth.GenerateWorkspaceToken(w.ID)
	if err != nil {
		errors.InternalError(c, "failed to issue workspace token", err)
		return nil, false
	}

	if err := auth.SaveWorkspaceSession(c, w.ID, token); err != nil {
		logger.Warn("failed to save workspace session", "workspace_id", w.ID, "error", err)
	}

	return &WorkspaceResponse{Workspace: w.View(), Token: token}, true
}

// maps sandbox file errors onto responses
func fileError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		errors.NotFound(c, "file")
	case stderrors.Is(err, sandbox.ErrPathOutsideRoot):
		errors.BadRequest(c, "path is outside the workspace", nil)
	case stderrors.Is(err, sandbox.ErrTornDown):
		errors.WorkspaceNotFound(c)
	default:
		errors.InternalError(c, "file operation failed", err)
	}
}

// renders the transcript for display, parsing artifacts from assistant replies
func renderTranscript(messages []agent.Message) []TranscriptEntry {
	entries := make([]TranscriptEntry, 0, len(messages))

	for _, m := range messages {
		entry := TranscriptEntry{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.Name,
		}

		if m.Role == llm.RoleAssistant {
			// replies that are not artifact JSON are shown as plain content
			artifacts, _ := agent.ParseArtifacts(m.Content) //nolint:errcheck

			for _, a := range artifacts {
				html, err := web.RenderMarkdown(a.Description)
				if err != nil {
					html = ""
				}

				entry.Artifacts = append(entry.Artifacts, RenderedArtifact{Artifact: a, DescriptionHTML: html})
			}
		}

		entries = append(entries, entry)
	}

	return entries
}
