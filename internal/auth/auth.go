package auth

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
)

const tokenLifetime = 24 * time.Hour

var (
	mu        sync.RWMutex
	jwtSecret []byte
	store     *sessions.CookieStore
)

// Initialize sets the token signing secret and the session cookie store.
// secure marks the cookie HTTPS-only.
func Initialize(tokenSecret, sessionSecret string, secure bool) error {
	if tokenSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	if sessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must be set")
	}

	s := sessions.NewCookieStore([]byte(sessionSecret))
	s.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(tokenLifetime.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	mu.Lock()
	defer mu.Unlock()

	jwtSecret = []byte(tokenSecret)
	store = s

	return nil
}

func secret() ([]byte, error) {
	mu.RLock()
	defer mu.RUnlock()

	if len(jwtSecret) == 0 {
		return nil, ErrNotInitialized
	}

	return jwtSecret, nil
}

// creates a token granting access to one workspace
func GenerateWorkspaceToken(workspaceID string) (string, error) {
	key, err := secret()
	if err != nil {
		return "", err
	}

	now := time.Now()

	claims := Claims{
		WorkspaceID: workspaceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   workspaceID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// validates a workspace token and returns the claims
func ValidateWorkspaceToken(tokenString string) (*Claims, error) {
	key, err := secret()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.WorkspaceID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// remembers the browser's workspace in the session cookie
func SaveWorkspaceSession(c *gin.Context, workspaceID, token string) error {
	mu.RLock()
	s := store
	mu.RUnlock()

	if s == nil {
		return ErrNotInitialized
	}

	// a cookie signed with an old secret decodes with an error but still
	// yields a fresh session to write into
	session, _ := s.Get(c.Request, SessionName) //nolint:errcheck
	session.Values[sessionWorkspaceKey] = workspaceID
	session.Values[sessionTokenKey] = token

	return session.Save(c.Request, c.Writer)
}

// returns the workspace and token remembered in the session cookie
func LoadWorkspaceSession(c *gin.Context) (string, string, error) {
	mu.RLock()
	s := store
	mu.RUnlock()

	if s == nil {
		return "", "", ErrNotInitialized
	}

	session, err := s.Get(c.Request, SessionName)
	if err != nil {
		return "", "", ErrNoSession
	}

	workspaceID, _ := session.Values[sessionWorkspaceKey].(string)
	token, _ := session.Values[sessionTokenKey].(string)

	if workspaceID == "" || token == "" {
		return "", "", ErrNoSession
	}

	return workspaceID, token, nil
}
