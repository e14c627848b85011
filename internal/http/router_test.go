package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelkine/edushelf/internal/appstate"
	"github.com/avelkine/edushelf/internal/assignments"
	"github.com/avelkine/edushelf/internal/auth"
	"github.com/avelkine/edushelf/internal/config"
	"github.com/avelkine/edushelf/internal/entities"
	"github.com/avelkine/edushelf/internal/favorites"
	"github.com/avelkine/edushelf/internal/kvstore"
	"github.com/avelkine/edushelf/internal/session"
)

type stubCatalogue struct {
	books  []entities.Book
	detail *entities.BookDetail
}

func (s *stubCatalogue) Search(ctx context.Context, term string) ([]entities.Book, error) {
	return s.books, nil
}

func (s *stubCatalogue) FetchDetail(ctx context.Context, key string) (*entities.BookDetail, error) {
	return s.detail, nil
}

type testEnv struct {
	router   *gin.Engine
	store    *appstate.Store
	sessions *session.Service
}

func setupRouter(t *testing.T, cat appstate.Catalogue, withAuth bool) (*testEnv, func()) {
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + t.Name() + ".db"
	kv, err := kvstore.Open(dbPath)
	require.NoError(t, err)

	sessions := session.NewService(kv, 4, nil)
	store := appstate.NewStore(sessions, favorites.NewManager(kv), assignments.NewManager(), cat)

	cfg := RouterConfig{
		Store:   store,
		Themes:  kvstore.NewThemeStore(kv, "light"),
		Version: "test",
	}
	if withAuth {
		cfg.AuthMiddleware = auth.NewMiddleware(sessions, nil)
	}

	env := &testEnv{
		router:   NewRouter(cfg),
		store:    store,
		sessions: sessions,
	}
	cleanup := func() {
		kv.Close()
		os.Remove(dbPath)
	}
	return env, cleanup
}

// setupSecureRouter wires the full browser-facing stack: cookie sessions,
// CSRF protection, and auth middleware backed by a real session manager.
func setupSecureRouter(t *testing.T, cat appstate.Catalogue) (*testEnv, func()) {
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_secure_" + t.Name() + ".db"
	kv, err := kvstore.Open(dbPath)
	require.NoError(t, err)

	sessions := session.NewService(kv, 4, nil)
	store := appstate.NewStore(sessions, favorites.NewManager(kv), assignments.NewManager(), cat)

	sqlDB, err := kv.SQLDB()
	require.NoError(t, err)
	sessionManager, err := auth.NewSessionManager(sqlDB, config.Auth{
		SessionLifetime: 24 * time.Hour,
		SecureCookies:   false,
	})
	require.NoError(t, err)

	cfg := RouterConfig{
		Store:          store,
		Sessions:       sessions,
		SessionManager: sessionManager,
		AuthMiddleware: auth.NewMiddleware(sessions, sessionManager),
		Themes:         kvstore.NewThemeStore(kv, "light"),
		CSRFSecret:     []byte("test-secret-key-32-bytes-long!!!"),
		Version:        "test",
	}

	env := &testEnv{
		router:   NewRouter(cfg),
		store:    store,
		sessions: sessions,
	}
	cleanup := func() {
		kv.Close()
		os.Remove(dbPath)
	}
	return env, cleanup
}

// cookieJar accumulates response cookies across requests, the way a browser
// would.
type cookieJar map[string]*http.Cookie

func (j cookieJar) update(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			delete(j, cookie.Name)
			continue
		}
		j[cookie.Name] = cookie
	}
}

func (j cookieJar) apply(req *http.Request) {
	for _, cookie := range j {
		req.AddCookie(cookie)
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginFlow(t *testing.T) {
	env, cleanup := setupRouter(t, &stubCatalogue{}, false)
	defer cleanup()

	w := doJSON(t, env.router, http.MethodPost, "/api/register", gin.H{
		"username": "ada", "email": "ada@example.com", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Registration alone leaves the session absent.
	w = doJSON(t, env.router, http.MethodGet, "/api/session", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session":null`)

	w = doJSON(t, env.router, http.MethodPost, "/api/login", gin.H{
		"identity": "ada", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loginResp struct {
		Session entities.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	assert.Equal(t, "ada@example.com", loginResp.Session.User.Email)
	assert.NotEmpty(t, loginResp.Session.Token)
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	env, cleanup := setupRouter(t, &stubCatalogue{}, false)
	defer cleanup()

	w := doJSON(t, env.router, http.MethodPost, "/api/register", gin.H{
		"username": "ada", "email": "not-an-email", "password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, env.router, http.MethodPost, "/api/register", gin.H{
		"username": "ada", "email": "ada@example.com", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, env.router, http.MethodPost, "/api/register", gin.H{
		"username": "ada2", "email": "ada@example.com", "password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env, cleanup := setupRouter(t, &stubCatalogue{}, false)
	defer cleanup()

	doJSON(t, env.router, http.MethodPost, "/api/register", gin.H{
		"username": "ada", "email": "ada@example.com", "password": "hunter22",
	}, nil)

	w := doJSON(t, env.router, http.MethodPost, "/api/login", gin.H{
		"identity": "ada", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFavoritesEndpoints(t *testing.T) {
	env, cleanup := setupRouter(t, &stubCatalogue{}, false)
	defer cleanup()

	book := gin.H{"key": "/works/OL1W", "title": "Algebra Basics"}

	w := doJSON(t, env.router, http.MethodPost, "/api/favorites", book, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate add is a silent no-op.
	w = doJSON(t, env.router, http.MethodPost, "/api/favorites", book, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, env.router, http.MethodGet, "/api/favorites", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Favorites []entities.Book `json:"favorites"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Favorites, 1)

	w = doJSON(t, env.router, http.MethodDelete, "/api/favorites/works/OL1W", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.store.Snapshot().Favorites)
}

func TestFavoritesAddRequiresKey(t *testing.T) {
	env, cleanup := setupRouter(t, &stubCatalogue{}, false)
	defer cleanup()

	w := doJSON(t, env.router, http.MethodPost, "/api/favorites", gin.H{"title": "keyless"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignmentsEndpoints(t *testing.T) {
	env, cleanup := setupRouter(t, &stubCatalogue{}, false)
	defer cleanup()

	w := doJSON(t, env.router, http.MethodPost, "/api/assignments", gin.H{
		"title": "Read chapter 4", "subject": "Math", "deadline": "2026-09-15",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, env.router, http.MethodPost, "/api/assignments", gin.H{
		"title": "   ", "deadline": "2026-09-15",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, env.router, http.MethodPost, "/api/assignments", gin.H{
		"title": "bad date", "deadline": "soonish",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, env.router, http.MethodGet, "/api/assignments", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Assignments []entities.Assignment `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Assignments, 1)
}

func TestThemeEndpoints(t *testing.T) {
	env, cleanup := setupRouter(t, &stubCatalogue{}, false)
	defer cleanup()

	w := doJSON(t, env.router, http.MethodGet, "/api/settings/theme", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "light")

	w = doJSON(t, env.router, http.MethodPut, "/api/settings/theme", gin.H{"theme": "dark"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.router, http.MethodGet, "/api/settings/theme", nil, nil)
	assert.Contains(t, w.Body.String(), "dark")
}

func TestBooksListAppliesFilter(t *testing.T) {
	cat := &stubCatalogue{books: []entities.Book{
		{Key: "/works/OL1W", Title: "Algebra Basics", AuthorNames: []string{"Jane Doe"}, Subjects: []string{"Science"}},
		{Key: "/works/OL2W", Title: "History 101", AuthorNames: []string{"John Smith"}, Subjects: []string{"History"}},
	}}
	env, cleanup := setupRouter(t, cat, false)
	defer cleanup()

	env.store.SearchBooks(context.Background(), "education")
	require.Eventually(t, func() bool {
		return env.store.Snapshot().Books.Status == appstate.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	w := doJSON(t, env.router, http.MethodGet, "/api/books?q=alg&category=All", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Books appstate.BooksState `json:"books"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Books.Items, 1)
	assert.Equal(t, "Algebra Basics", resp.Books.Items[0].Title)
}

func TestBooksDetail(t *testing.T) {
	cat := &stubCatalogue{detail: &entities.BookDetail{Key: "/works/OL1W", Description: "About algebra."}}
	env, cleanup := setupRouter(t, cat, false)
	defer cleanup()

	w := doJSON(t, env.router, http.MethodGet, "/api/books/detail?key=/works/OL1W", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "About algebra.")
}

func TestAuthMiddlewareProtectsAPI(t *testing.T) {
	env, cleanup := setupRouter(t, &stubCatalogue{}, true)
	defer cleanup()

	// Public paths stay reachable.
	w := doJSON(t, env.router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.router, http.MethodGet, "/api/favorites", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	doJSON(t, env.router, http.MethodPost, "/api/register", gin.H{
		"username": "ada", "email": "ada@example.com", "password": "hunter22",
	}, nil)
	w = doJSON(t, env.router, http.MethodPost, "/api/login", gin.H{
		"identity": "ada", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var loginResp struct {
		Session entities.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	w = doJSON(t, env.router, http.MethodGet, "/api/favorites", nil, map[string]string{
		"Authorization": "Bearer " + loginResp.Session.Token,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.router, http.MethodGet, "/api/favorites", nil, map[string]string{
		"Authorization": "Bearer wrong-token",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCookieSessionFlow(t *testing.T) {
	env, cleanup := setupSecureRouter(t, &stubCatalogue{})
	defer cleanup()

	jar := cookieJar{}

	// The session endpoint hands out the CSRF token for later mutations.
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	csrfToken := w.Header().Get(auth.CSRFTokenHeader)
	require.NotEmpty(t, csrfToken)
	jar.update(w)

	postJSON := func(path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(auth.CSRFTokenHeader, csrfToken)
		jar.apply(req)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		jar.update(w)
		return w
	}

	w = postJSON("/api/register", gin.H{
		"username": "ada", "email": "ada@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON("/api/login", gin.H{"identity": "ada", "password": "hunter22"})
	require.Equal(t, http.StatusOK, w.Code)
	_, hasSession := jar["session"]
	require.True(t, hasSession, "login response carried no session cookie")

	// The cookie alone authenticates; no Authorization header.
	req = httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	jar.apply(req)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCSRFRejectsMutationsWithoutToken(t *testing.T) {
	env, cleanup := setupSecureRouter(t, &stubCatalogue{})
	defer cleanup()

	w := doJSON(t, env.router, http.MethodPost, "/api/register", gin.H{
		"username": "ada", "email": "ada@example.com", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"CSRF token invalid or missing"}`, w.Body.String())

	n, err := env.sessions.RegistryLen()
	require.NoError(t, err)
	assert.Zero(t, n, "rejected registration must not create a user")
}
