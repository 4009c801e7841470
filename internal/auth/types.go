package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// cookie holding the browser's workspace
	SessionName = "codelab_session"

	sessionWorkspaceKey = "workspace_id"
	sessionTokenKey     = "token"

	workspaceContextKey = "workspace_id"
)

var (
	ErrNotInitialized = errors.New("auth is not initialized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrNoSession      = errors.New("no workspace in session")
)

// grants access to a single workspace
type Claims struct {
	WorkspaceID string `json:"workspace_id"`
	jwt.RegisteredClaims
}
