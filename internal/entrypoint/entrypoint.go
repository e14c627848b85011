package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelkine/edushelf/internal/appstate"
	"github.com/avelkine/edushelf/internal/assignments"
	"github.com/avelkine/edushelf/internal/auth"
	"github.com/avelkine/edushelf/internal/catalogue"
	"github.com/avelkine/edushelf/internal/config"
	"github.com/avelkine/edushelf/internal/favorites"
	http_controllers "github.com/avelkine/edushelf/internal/http"
	"github.com/avelkine/edushelf/internal/kvstore"
	"github.com/avelkine/edushelf/internal/scheduler"
	"github.com/avelkine/edushelf/internal/session"
	"github.com/avelkine/edushelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before closing the listener.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Edushelf v%s", version)

	kv, err := kvstore.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	var notifier session.RegistrationNotifier
	if cfg.Auth.EchoEnabled && cfg.Auth.EchoURL != "" {
		log.Printf("Registration echo enabled: %s", cfg.Auth.EchoURL)
		notifier = session.NewEchoNotifier(cfg.Auth.EchoURL)
	}

	sessions := session.NewService(kv, cfg.Auth.BcryptCost, notifier)
	favs := favorites.NewManager(kv)
	asgn := assignments.NewManager()

	cat := catalogue.NewClient(catalogue.Config{
		BaseURL:      cfg.Catalogue.BaseURL,
		UserAgent:    cfg.Catalogue.UserAgent,
		DefaultQuery: cfg.Catalogue.DefaultQuery,
		MaxResults:   cfg.Catalogue.MaxResults,
		Timeout:      cfg.Catalogue.Timeout,
	})

	store := appstate.NewStore(sessions, favs, asgn, cat)
	store.Restore()
	if sess := store.Snapshot().Session; sess != nil {
		log.Printf("Restored session for %s", sess.User.Email)
	}

	themes := kvstore.NewThemeStore(kv, cfg.Theme.Default)
	log.Printf("Theme: %s", themes.Get())

	sqlDB, err := kv.SQLDB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}

	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	authMiddleware := auth.NewMiddleware(sessions, sessionManager)

	var csrfSecret []byte
	if cfg.Auth.SessionSecret != "" {
		csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			csrfSecret = []byte(cfg.Auth.SessionSecret)
		}
	} else {
		secret, err := auth.GenerateSecret()
		if err != nil {
			log.Fatalf("Failed to generate CSRF secret: %v", err)
		}
		csrfSecret, _ = hex.DecodeString(secret)
		log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	// Background task queue for detail prefetches.
	var taskClient *tasks.Client
	var prefetcher *tasks.Prefetcher
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}, tasks.NewPrefetchDetailQueue(store))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		prefetcher = tasks.NewPrefetcher(taskClient)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	reminders := scheduler.NewReminderScheduler(asgn, cfg.Reminders)
	if err := reminders.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Store:          store,
		Sessions:       sessions,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		Themes:         themes,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	}
	if prefetcher != nil {
		routerCfg.Prefetcher = prefetcher
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		reminders.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
