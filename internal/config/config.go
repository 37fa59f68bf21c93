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
		Auth
		Uploads
		Audit
		Tasks
		Log
	}

	HTTP struct {
		Port         int32
		Host         string
		BasePath     string // Prefix all API routes are mounted under
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret           string
		TokenExpiry         time.Duration
		Issuer              string
		BcryptCost          int
		MinPasswordLength   int
		AllowInsecureSecret bool // Start with a generated secret when JWT_SECRET is empty (dev only)

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Uploads struct {
		Dir            string
		MaxUploadBytes int64
		SweepSchedule  string        // Cron format: "30 3 * * *" = daily at 03:30
		SweepGrace     time.Duration // Unreferenced files younger than this are kept
	}
	Audit struct {
		RetentionDays   int    // Days to keep audit events (default: 30)
		CleanupSchedule string // Cron format: "0 4 * * *" = daily at 04:00
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Log struct {
		Level  string
		Pretty bool // Human-readable console output instead of JSON
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("http_base_path", "/")
	v.SetDefault("http_read_timeout", "15s")
	v.SetDefault("http_write_timeout", "30s")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("jwt_secret", "")
	v.SetDefault("auth_token_expiry", "1h")
	v.SetDefault("auth_token_issuer", "bookshelf")
	v.SetDefault("auth_bcrypt_cost", 10)
	v.SetDefault("auth_min_password_length", 8)
	v.SetDefault("auth_allow_insecure_secret", false)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	// Upload defaults
	v.SetDefault("uploads_dir", DefaultUploadsDir)
	v.SetDefault("uploads_max_bytes", 5<<20)
	v.SetDefault("cover_sweep_schedule", "30 3 * * *")
	v.SetDefault("cover_sweep_grace", "1h")

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 4 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)

	return &Config{
		HTTP: HTTP{
			Port:         v.GetInt32("PORT"),
			Host:         v.GetString("HOST"),
			BasePath:     v.GetString("HTTP_BASE_PATH"),
			ReadTimeout:  v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("HTTP_WRITE_TIMEOUT"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			JWTSecret:           v.GetString("JWT_SECRET"),
			TokenExpiry:         v.GetDuration("AUTH_TOKEN_EXPIRY"),
			Issuer:              v.GetString("AUTH_TOKEN_ISSUER"),
			BcryptCost:          v.GetInt("AUTH_BCRYPT_COST"),
			MinPasswordLength:   v.GetInt("AUTH_MIN_PASSWORD_LENGTH"),
			AllowInsecureSecret: v.GetBool("AUTH_ALLOW_INSECURE_SECRET"),
			MaxLoginAttempts:    v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:     v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:     v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Uploads: Uploads{
			Dir:            v.GetString("UPLOADS_DIR"),
			MaxUploadBytes: v.GetInt64("UPLOADS_MAX_BYTES"),
			SweepSchedule:  v.GetString("COVER_SWEEP_SCHEDULE"),
			SweepGrace:     v.GetDuration("COVER_SWEEP_GRACE"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
	}
}
