package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avelkine/edushelf/internal/session"
)

// Context keys for the resolved session.
const (
	ContextKeySession  = "auth_session"
	ContextKeyAuthType = "auth_type" // "session", "bearer"
)

type AuthType string

const (
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// Middleware authenticates requests against the active session: either the
// cookie-bound token or an Authorization bearer token must match it.
type Middleware struct {
	sessions       *session.Service
	sessionManager *SessionManager
	publicPaths    map[string]bool
}

func NewMiddleware(sessions *session.Service, sessionManager *SessionManager) *Middleware {
	publicPaths := map[string]bool{
		"/health":       true,
		"/api/login":    true,
		"/api/register": true,
		"/api/session":  true,
		"/favicon.ico":  true,
	}

	return &Middleware{
		sessions:       sessions,
		sessionManager: sessionManager,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware that rejects unauthenticated requests to
// non-public paths.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		active := m.sessions.Current()
		if active != nil {
			if token := bearerToken(c); token != "" && token == active.Token {
				c.Set(ContextKeySession, active)
				c.Set(ContextKeyAuthType, AuthTypeBearer)
				c.Next()
				return
			}
			if m.sessionManager != nil && m.sessionManager.Token(c.Request) == active.Token {
				c.Set(ContextKeySession, active)
				c.Set(ContextKeyAuthType, AuthTypeSession)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
