package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"codeberg.org/algrv/codelab/internal/errors"
)

// WorkspaceMiddleware requires a token for the workspace named by the :id
// route parameter. The token comes from a Bearer header or, for websocket
// upgrades and downloads, the token query parameter.
func WorkspaceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			errors.Unauthorized(c, "workspace token required")
			return
		}

		claims, err := ValidateWorkspaceToken(token)
		if err != nil {
			errors.Unauthorized(c, "invalid or expired token")
			return
		}

		if claims.WorkspaceID != c.Param("id") {
			errors.Forbidden(c, "token is for a different workspace")
			return
		}

		c.Set(workspaceContextKey, claims.WorkspaceID)

		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// extracts the workspace ID after WorkspaceMiddleware
func GetWorkspaceID(c *gin.Context) (string, bool) {
	id, exists := c.Get(workspaceContextKey)
	if !exists {
		return "", false
	}

	return id.(string), true
}
