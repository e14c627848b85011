// Package auth binds the session manager to the HTTP surface: durable cookie
// sessions, the request-authentication middleware and CSRF protection.
package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/http"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"

	"github.com/avelkine/edushelf/internal/config"
)

// sessionKeyToken is the cookie-session key holding the active session token.
const sessionKeyToken = "session_token"

// SessionManager wraps scs.SessionManager with application-specific methods.
// Sessions are stored in SQLite so a browser stays attached to the active
// session across server restarts.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager over the given
// database handle.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// Middleware loads the cookie session into the request context and commits it
// through a wrapped writer. Handlers write through c.Writer directly, so the
// plain scs LoadAndSave wrapper would flush the response before the session
// commit and drop the Set-Cookie header.
func (sm *SessionManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		srw := &sessionResponseWriter{
			ResponseWriter: c.Writer,
			sm:             sm,
			request:        c.Request,
		}
		c.Writer = srw

		c.Next()

		// Commit even when the handler wrote no response body.
		if !srw.wroteHeader {
			srw.writeSessionCookie()
		}
	}
}

// Attach binds the active session token to the caller's cookie session after
// a successful login. The cookie token is renewed to prevent fixation.
func (sm *SessionManager) Attach(r *http.Request, token string) error {
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}
	sm.Put(r.Context(), sessionKeyToken, token)
	return nil
}

// Token returns the session token bound to the caller's cookie session, or
// empty.
func (sm *SessionManager) Token(r *http.Request) string {
	return sm.GetString(r.Context(), sessionKeyToken)
}

// Detach destroys the caller's cookie session on logout.
func (sm *SessionManager) Detach(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GenerateSecret creates a random 32-byte secret for CSRF signing when none
// is configured.
func GenerateSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
