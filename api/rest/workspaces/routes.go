package workspaces

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/algrv/codelab/internal/auth"
)

func RegisterRoutes(router *gin.RouterGroup, manager Manager, closer Closer) {
	router.POST("/workspaces", CreateWorkspaceHandler(manager))
	router.GET("/session", SessionHandler(manager))

	ws := router.Group("/workspaces/:id", auth.WorkspaceMiddleware())
	{
		ws.GET("", GetWorkspaceHandler(manager))
		ws.DELETE("", DeleteWorkspaceHandler(manager, closer))
		ws.PUT("/language", SetLanguageHandler(manager))
		ws.PUT("/framework", SetFrameworkHandler(manager))
		ws.GET("/files", ReadFileHandler(manager))
		ws.PUT("/files", WriteFileHandler(manager))
		ws.GET("/dir", ReadDirHandler(manager))
		ws.POST("/execute", ExecuteHandler(manager))
		ws.GET("/export", ExportHandler(manager))
		ws.GET("/transcript", TranscriptHandler(manager))
	}
}
