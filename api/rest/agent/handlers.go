package agent

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	agentcore "codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/errors"
	"codeberg.org/algrv/codelab/internal/logger"
	"codeberg.org/algrv/codelab/internal/sandbox"
	"codeberg.org/algrv/codelab/internal/workspace"
)

// RunHandler godoc
// @Summary Generate code
// @Description Asks the model for code in the selected language and framework, dispatching any tool calls it makes. Replies are appended to the transcript.
// @Tags agent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 200 {object} RunResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id}/run [post]
func RunHandler(source WorkspaceSource, agentClient *agentcore.Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := source.Get(c.Param("id"))
		if !ok {
			errors.WorkspaceNotFound(c)
			return
		}

		result, err := w.Run(c.Request.Context(), agentClient)
		if err != nil {
			errors.ModelError(c, err)
			return
		}

		logger.ForWorkspace(w.ID).Info("generation finished",
			"model", result.Model,
			"artifacts", len(result.Artifacts),
			"skipped_tool_calls", len(result.SkippedToolCalls),
		)

		c.JSON(http.StatusOK, RunResponse{
			RunResult:        result,
			TranscriptLength: w.Transcript().Len(),
		})
	}
}

// ApplyHandler godoc
// @Summary Apply generated files
// @Description Writes the files from the latest reply into the sandbox. Artifacts without a file name are skipped.
// @Tags agent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 200 {object} ApplyResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /api/v1/workspaces/{id}/apply [post]
func ApplyHandler(source WorkspaceSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := source.Get(c.Param("id"))
		if !ok {
			errors.WorkspaceNotFound(c)
			return
		}

		result, err := w.Apply()

		switch {
		case stderrors.Is(err, workspace.ErrNoArtifacts):
			errors.UnprocessableEntity(c, "the latest reply has no generated files")
			return
		case stderrors.Is(err, sandbox.ErrPathOutsideRoot):
			errors.BadRequest(c, "a generated file is outside the workspace", err)
			return
		case err != nil:
			errors.InternalError(c, "failed to apply generated files", err)
			return
		}

		c.JSON(http.StatusOK, ApplyResponse{ApplyResult: result, Code: w.Code()})
	}
}
