package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avelkine/edushelf/internal/appstate"
	"github.com/avelkine/edushelf/internal/auth"
	"github.com/avelkine/edushelf/internal/kvstore"
	"github.com/avelkine/edushelf/internal/session"
)

// RouterConfig carries all router dependencies, improving testability and
// reducing parameter count.
type RouterConfig struct {
	Store          *appstate.Store
	Sessions       *session.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	Themes         *kvstore.ThemeStore
	Prefetcher     DetailPrefetcher
	CSRFSecret     []byte
	SecureCookies  bool
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(securityHeaders())

	// CSRF must run before session so that session context is preserved.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.Sessions))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.Middleware())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	healthController := NewHealthController(cfg.Version)
	authController := NewAuthController(cfg.Store, cfg.SessionManager)
	booksController := NewBooksController(cfg.Store)
	favoritesController := NewFavoritesController(cfg.Store, cfg.Prefetcher)
	assignmentsController := NewAssignmentsController(cfg.Store)
	settingsController := NewSettingsController(cfg.Themes)

	router.GET("/health", healthController.Health)

	api := router.Group("/api")
	{
		api.POST("/register", authController.Register)
		api.POST("/login", authController.Login)
		api.POST("/logout", authController.Logout)
		api.GET("/session", authController.Session)

		api.POST("/books/search", booksController.Search)
		api.GET("/books", booksController.List)
		api.GET("/books/detail", booksController.Detail)

		api.GET("/favorites", favoritesController.List)
		api.POST("/favorites", favoritesController.Add)
		api.DELETE("/favorites/*key", favoritesController.Remove)

		api.GET("/assignments", assignmentsController.List)
		api.POST("/assignments", assignmentsController.Create)

		api.GET("/settings/theme", settingsController.GetTheme)
		api.PUT("/settings/theme", settingsController.SetTheme)
	}

	return router
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
