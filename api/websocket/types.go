package websocket

type ConnectParams struct {
	Token string `form:"token" binding:"required"` // workspace token; browsers cannot set headers on upgrades
}
