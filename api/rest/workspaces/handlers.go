package workspaces

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/algrv/codelab/internal/auth"
	"codeberg.org/algrv/codelab/internal/errors"
	"codeberg.org/algrv/codelab/internal/logger"
	"codeberg.org/algrv/codelab/internal/sandbox"
	"codeberg.org/algrv/codelab/internal/workspace"
)

// CreateWorkspaceHandler godoc
// @Summary Create a workspace
// @Description Boots a sandbox and starts scaffolding and installing in the background
// @Tags workspaces
// @Produce json
// @Success 201 {object} WorkspaceResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/workspaces [post]
func CreateWorkspaceHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, ok := createWorkspace(c, manager)
		if !ok {
			return
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// SessionHandler godoc
// @Summary Resume the browser's workspace
// @Description Returns the workspace remembered in the session cookie, creating one when it has expired
// @Tags workspaces
// @Produce json
// @Success 200 {object} WorkspaceResponse
// @Router /api/v1/session [get]
func SessionHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, token, err := auth.LoadWorkspaceSession(c)
		if err == nil {
			if _, verr := auth.ValidateWorkspaceToken(token); verr == nil {
				if w, ok := manager.Get(id); ok {
					c.JSON(http.StatusOK, WorkspaceResponse{Workspace: w.View(), Token: token})
					return
				}
			}
		}

		resp, ok := createWorkspace(c, manager)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// GetWorkspaceHandler godoc
// @Summary Get a workspace
// @Tags workspaces
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 200 {object} workspace.View
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id} [get]
func GetWorkspaceHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := lookup(c, manager)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, w.View())
	}
}

// DeleteWorkspaceHandler godoc
// @Summary Delete a workspace
// @Description Tears down the sandbox and disconnects realtime clients
// @Tags workspaces
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id} [delete]
func DeleteWorkspaceHandler(manager Manager, closer Closer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		err := manager.Delete(c.Request.Context(), id)
		if stderrors.Is(err, workspace.ErrNotFound) {
			errors.WorkspaceNotFound(c)
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to delete workspace", err)
			return
		}

		closer.CloseWorkspace(id, "workspace deleted")

		c.Status(http.StatusNoContent)
	}
}

// SetLanguageHandler godoc
// @Summary Select a language
// @Description Switching language clears the framework
// @Tags workspaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param request body SetLanguageRequest true "Language"
// @Success 200 {object} SelectionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id}/language [put]
func SetLanguageHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetLanguageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		w, ok := lookup(c, manager)
		if !ok {
			return
		}

		sel, err := w.SetLanguage(req.Language)
		if err != nil {
			errors.BadRequest(c, "unsupported language", err)
			return
		}

		c.JSON(http.StatusOK, SelectionResponse{Selection: sel, Options: sel.Options()})
	}
}

// SetFrameworkHandler godoc
// @Summary Select a framework
// @Tags workspaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param request body SetFrameworkRequest true "Framework"
// @Success 200 {object} SelectionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id}/framework [put]
func SetFrameworkHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetFrameworkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		w, ok := lookup(c, manager)
		if !ok {
			return
		}

		sel, err := w.SetFramework(req.Framework)
		if err != nil {
			errors.BadRequest(c, "framework is not offered for this language", err)
			return
		}

		c.JSON(http.StatusOK, SelectionResponse{Selection: sel, Options: sel.Options()})
	}
}

// ReadFileHandler godoc
// @Summary Read a file
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param path query string true "File path"
// @Success 200 {object} FileResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id}/files [get]
func ReadFileHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Query("path")
		if p == "" {
			errors.BadRequest(c, "path is required", nil)
			return
		}

		w, ok := lookup(c, manager)
		if !ok {
			return
		}

		content, err := w.ReadFile(p)
		if err != nil {
			fileError(c, err)
			return
		}

		c.JSON(http.StatusOK, FileResponse{Path: p, Content: content})
	}
}

// WriteFileHandler godoc
// @Summary Write a file
// @Description Writing the entry file also replaces the editor code
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param request body WriteFileRequest true "File"
// @Success 200 {object} FileResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id}/files [put]
func WriteFileHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WriteFileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if len(req.Content) > maxFileSize {
			errors.BadRequest(c, "file exceeds maximum size of 256 KB", nil)
			return
		}

		w, ok := lookup(c, manager)
		if !ok {
			return
		}

		if err := w.WriteCode(req.Path, req.Content); err != nil {
			fileError(c, err)
			return
		}

		c.JSON(http.StatusOK, FileResponse{Path: req.Path, Content: req.Content})
	}
}

// ReadDirHandler godoc
// @Summary List a directory
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param path query string false "Directory path" default(/)
// @Success 200 {object} DirResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id}/dir [get]
func ReadDirHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.DefaultQuery("path", "/")

		w, ok := lookup(c, manager)
		if !ok {
			return
		}

		entries, err := w.ReadDir(p)
		if err != nil {
			fileError(c, err)
			return
		}

		c.JSON(http.StatusOK, DirResponse{Path: p, Entries: entries})
	}
}

// ExecuteHandler godoc
// @Summary Start the dev server
// @Description Starts the project's dev server, replacing any running one. Output streams over the websocket.
// @Tags workspaces
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 202 {object} ExecuteResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id}/execute [post]
func ExecuteHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := lookup(c, manager)
		if !ok {
			return
		}

		err := w.Execute(c.Request.Context())

		switch {
		case stderrors.Is(err, workspace.ErrNotReady):
			errors.SandboxNotReady(c, string(w.State()))
			return
		case stderrors.Is(err, workspace.ErrWorkspaceClosed):
			errors.WorkspaceNotFound(c)
			return
		case err != nil:
			errors.InternalError(c, "failed to start dev server", err)
			return
		}

		c.JSON(http.StatusAccepted, ExecuteResponse{State: w.State(), PreviewURL: w.PreviewURL()})
	}
}

// ExportHandler godoc
// @Summary Download the project
// @Description Zip (default) or gzipped tar of the project without installed dependencies
// @Tags workspaces
// @Produce application/zip
// @Produce application/gzip
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param format query string false "Archive format" Enums(zip, tar) default(zip)
// @Success 200 {file} file
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id}/export [get]
func ExportHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := lookup(c, manager)
		if !ok {
			return
		}

		var params ExportParams
		if err := c.ShouldBindQuery(&params); err != nil {
			errors.ValidationError(c, err)
			return
		}

		format := sandbox.FormatZip
		contentType := "application/zip"

		if params.Format == string(sandbox.FormatTar) {
			format = sandbox.FormatTar
			contentType = "application/gzip"
		}

		var buf bytes.Buffer

		err := w.Export(c.Request.Context(), &buf, format)

		switch {
		case stderrors.Is(err, workspace.ErrNotReady):
			errors.SandboxNotReady(c, string(w.State()))
			return
		case stderrors.Is(err, workspace.ErrWorkspaceClosed):
			errors.WorkspaceNotFound(c)
			return
		case err != nil:
			errors.InternalError(c, "failed to export workspace", err)
			return
		}

		name := sandbox.ArchiveName(format)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, contentType, buf.Bytes())

		logger.ForWorkspace(w.ID).Info("workspace exported", "format", format, "bytes", buf.Len())
	}
}

// TranscriptHandler godoc
// @Summary Get the transcript
// @Description Model responses and tool results with artifact descriptions rendered as HTML
// @Tags agent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 200 {object} TranscriptResponse
// @Router /api/v1/workspaces/{id}/transcript [get]
func TranscriptHandler(manager Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := lookup(c, manager)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, TranscriptResponse{Entries: renderTranscript(w.Transcript().Messages())})
	}
}
