package auth

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"

	"github.com/avelkine/edushelf/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupSessionManager(t *testing.T) (*SessionManager, func()) {
	t.Helper()

	dbPath := "./test_auth_" + t.Name() + ".db"
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	sm, err := NewSessionManager(db, config.Auth{
		SessionLifetime: 24 * time.Hour,
		SecureCookies:   false,
	})
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	return sm, func() {
		db.Close()
		os.Remove(dbPath)
	}
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == "session" {
			return cookie
		}
	}
	return nil
}

func TestNewSessionManagerCookieConfig(t *testing.T) {
	sm, cleanup := setupSessionManager(t)
	defer cleanup()

	if sm.Cookie.Name != "session" {
		t.Errorf("Expected cookie name 'session', got '%s'", sm.Cookie.Name)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("Cookie should be HttpOnly")
	}
	if sm.Cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("Expected SameSiteStrictMode, got %v", sm.Cookie.SameSite)
	}
	if sm.Cookie.Secure {
		t.Error("Cookie.Secure should follow the config")
	}
}

func TestMiddlewareCommitsCookieBeforeBody(t *testing.T) {
	sm, cleanup := setupSessionManager(t)
	defer cleanup()

	router := gin.New()
	router.Use(sm.Middleware())
	router.POST("/login", func(c *gin.Context) {
		if err := sm.Attach(c.Request, "token123"); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		// Writing the body flushes the headers; the session cookie must
		// already be among them.
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	cookie := sessionCookie(rr)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("login response carried no session cookie")
	}
}

func TestCookieRoundTrip(t *testing.T) {
	sm, cleanup := setupSessionManager(t)
	defer cleanup()

	router := gin.New()
	router.Use(sm.Middleware())
	router.POST("/login", func(c *gin.Context) {
		if err := sm.Attach(c.Request, "token123"); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/token", func(c *gin.Context) {
		c.String(http.StatusOK, sm.Token(c.Request))
	})
	router.POST("/logout", func(c *gin.Context) {
		if err := sm.Detach(c.Request); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	cookie := sessionCookie(rr)
	if cookie == nil {
		t.Fatal("login response carried no session cookie")
	}

	// The cookie resolves back to the attached token.
	req = httptest.NewRequest(http.MethodGet, "/token", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Body.String() != "token123" {
		t.Errorf("Expected token 'token123', got '%s'", rr.Body.String())
	}

	// Detach destroys the cookie session even when the handler writes no
	// body.
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 from logout, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/token", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Body.String() != "" {
		t.Errorf("Expected empty token after detach, got '%s'", rr.Body.String())
	}
}

func TestTokenWithoutSession(t *testing.T) {
	sm, cleanup := setupSessionManager(t)
	defer cleanup()

	router := gin.New()
	router.Use(sm.Middleware())
	router.GET("/token", func(c *gin.Context) {
		c.String(http.StatusOK, sm.Token(c.Request))
	})

	req := httptest.NewRequest(http.MethodGet, "/token", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Body.String() != "" {
		t.Errorf("Expected empty token for a fresh request, got '%s'", rr.Body.String())
	}
}
