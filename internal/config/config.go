package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Catalogue
		Auth
		Theme
		Tasks
		Reminders
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Catalogue struct {
		BaseURL      string
		UserAgent    string
		DefaultQuery string
		MaxResults   int
		Timeout      time.Duration
	}
	Auth struct {
		BcryptCost      int
		SessionLifetime time.Duration
		SessionSecret   string // Auto-generated if empty
		SecureCookies   bool   // Set to false for local dev without HTTPS

		// Remote registration echo. Disabled by default; when enabled each
		// successful registration is mirrored to EchoURL fire-and-forget.
		EchoEnabled bool
		EchoURL     string
	}
	Theme struct {
		Default string // Fallback when no theme has been persisted
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Reminders struct {
		Enabled  bool
		Schedule string        // Cron format: "0 8 * * *" = daily at 08:00
		Window   time.Duration // How far ahead to look for due assignments
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Catalogue defaults
	v.SetDefault("catalogue_base_url", DefaultCatalogueBaseURL)
	v.SetDefault("catalogue_user_agent", DefaultCatalogueUserAgent)
	v.SetDefault("catalogue_default_query", "education")
	v.SetDefault("catalogue_max_results", 40)
	v.SetDefault("catalogue_timeout", "10s")

	// Auth defaults
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_session_secret", "")
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_echo_enabled", false)
	v.SetDefault("auth_echo_url", "")

	v.SetDefault("theme_default", "light")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "5m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Deadline reminder defaults
	v.SetDefault("reminders_enabled", true)
	v.SetDefault("reminders_schedule", "0 8 * * *")
	v.SetDefault("reminders_window", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("port"),
			Host: v.GetString("host"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("shutdown_timeout_in_seconds"),
		},
		Database: Database{
			Path: v.GetString("database_path"),
		},
		Catalogue: Catalogue{
			BaseURL:      v.GetString("catalogue_base_url"),
			UserAgent:    v.GetString("catalogue_user_agent"),
			DefaultQuery: v.GetString("catalogue_default_query"),
			MaxResults:   v.GetInt("catalogue_max_results"),
			Timeout:      v.GetDuration("catalogue_timeout"),
		},
		Auth: Auth{
			BcryptCost:      v.GetInt("auth_bcrypt_cost"),
			SessionLifetime: v.GetDuration("auth_session_lifetime"),
			SessionSecret:   v.GetString("auth_session_secret"),
			SecureCookies:   v.GetBool("auth_secure_cookies"),
			EchoEnabled:     v.GetBool("auth_echo_enabled"),
			EchoURL:         v.GetString("auth_echo_url"),
		},
		Theme: Theme{
			Default: v.GetString("theme_default"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("tasks_enabled"),
			Workers:         v.GetInt("task_workers"),
			ReleaseAfter:    v.GetDuration("task_release_after"),
			CleanupInterval: v.GetDuration("task_cleanup_interval"),
		},
		Reminders: Reminders{
			Enabled:  v.GetBool("reminders_enabled"),
			Schedule: v.GetString("reminders_schedule"),
			Window:   v.GetDuration("reminders_window"),
		},
	}
}
