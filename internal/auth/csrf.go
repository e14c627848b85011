package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/avelkine/edushelf/internal/session"
)

// CSRFTokenHeader is the header carrying the token in both directions:
// handlers expose it on safe responses and clients echo it on mutations.
const CSRFTokenHeader = "X-CSRF-Token"

// CSRFMiddleware protects cookie-authenticated mutating requests. A request
// whose bearer token matches the active session skips the check; the token is
// validated here because a bare Authorization header is attacker-settable.
// When sessions is nil the skip falls back to header presence.
func CSRFMiddleware(secret []byte, secure bool, sessions *session.Service) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if hasValidBearer(c, sessions) {
			c.Next()
			return
		}

		var passed bool
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set("csrf_token", csrf.Token(r))
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)

		// On rejection csrfProtect has already written the 403; the rest of
		// the chain must not run.
		if !passed {
			c.Abort()
		}
	}
}

// GetCSRFToken returns the token for the current request so handlers can
// expose it to clients.
func GetCSRFToken(c *gin.Context) string {
	if token, ok := c.Get("csrf_token"); ok {
		if s, ok := token.(string); ok {
			return s
		}
	}
	return ""
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
}

// hasValidBearer reports whether the request carries a bearer token matching
// the active session.
func hasValidBearer(c *gin.Context, sessions *session.Service) bool {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return false
	}

	if sessions == nil {
		return true
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return false
	}

	active := sessions.Current()
	return active != nil && strings.TrimSpace(parts[1]) == active.Token
}
