package websocket

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/algrv/codelab/internal/auth"
	ws "codeberg.org/algrv/codelab/internal/websocket"
)

func RegisterRoutes(router *gin.RouterGroup, hub *ws.Hub, source ws.WorkspaceSource) {
	router.GET("/workspaces/:id/ws", auth.WorkspaceMiddleware(), WebSocketHandler(hub, source))
}
