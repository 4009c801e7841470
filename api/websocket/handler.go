package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/algrv/codelab/internal/errors"
	"codeberg.org/algrv/codelab/internal/logger"
	ws "codeberg.org/algrv/codelab/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     ws.CheckOrigin,
}

// attaches a connection to a workspace's terminal and lifecycle events.
// the route sits behind auth.WorkspaceMiddleware, so the token has already
// been checked against :id.
func WebSocketHandler(hub *ws.Hub, source ws.WorkspaceSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params ConnectParams
		if err := c.ShouldBindQuery(&params); err != nil {
			errors.BadRequest(c, "invalid parameters", err)
			return
		}

		workspaceID := c.Param("id")

		w, ok := source.Get(workspaceID)
		if !ok {
			errors.WorkspaceNotFound(c)
			return
		}

		ipAddress := c.ClientIP()

		canAccept, reason := hub.CanAcceptConnection(workspaceID, ipAddress)
		if !canAccept {
			errors.TooManyRequests(c, reason)
			return
		}

		clientID, err := ws.GenerateClientID()
		if err != nil {
			errors.InternalError(c, "failed to generate client ID", err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection",
				"workspace_id", workspaceID,
				"ip", ipAddress,
			)

			return
		}

		// track IP connection only after successful upgrade
		hub.TrackIPConnection(ipAddress)

		// the snapshot carries state and preview but never earlier terminal output
		view := w.View()
		client := ws.NewClient(clientID, workspaceID, ipAddress, &view, conn, hub)

		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()

		logger.Info("websocket connection established",
			"client_id", clientID,
			"workspace_id", workspaceID,
			"ip", ipAddress,
		)
	}
}
