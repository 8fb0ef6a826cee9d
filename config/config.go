package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DevelopmentJWTSecret signs tokens when APP_ENV=development and JWT_SECRET is unset
	DevelopmentJWTSecret = "development-only-secret"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set outside development")

type Config struct {
	// Environment controls error verbosity and gin mode ("development" or "production")
	Environment string `env:"APP_ENV" envDefault:"production"`

	Server struct {
		Port         string   `env:"PORT" envDefault:"5250"`
		AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

		// Base URL of the admin UI, used for deep links in notifications
		AdminBaseURL string `env:"ADMIN_BASE_URL" envDefault:"http://localhost:3000"`
	}

	Database struct {
		// Driver is either "sqlite" or "postgres"
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
		// Path of the SQLite file, or a PostgreSQL DSN
		DSN string `env:"DB_DSN" envDefault:"database/rentdesk.db"`
	}

	Auth struct {
		// Required outside development
		JWTSecret     string        `env:"JWT_SECRET"`
		TokenLifetime time.Duration `env:"JWT_LIFETIME" envDefault:"24h"`
	}

	Notification struct {
		// Maximum time a single notification send may take
		Timeout   time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
		QueueSize int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"100"`

		SMTP struct {
			Host     string `env:"SMTP_HOST"`
			Port     string `env:"SMTP_PORT" envDefault:"587"`
			Username string `env:"SMTP_USERNAME"`
			Password string `env:"SMTP_PASSWORD"`
			From     string `env:"SMTP_FROM"`
		}

		Telegram struct {
			BotToken string `env:"TELEGRAM_BOT_TOKEN"`
			ChatID   string `env:"TELEGRAM_CHAT_ID"`
		}
	}

	// Site holds the defaults for the settings table
	Site SiteSettings

	RateLimit struct {
		// Requests allowed per client IP per minute on public form endpoints
		RequestsPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
		Burst             int `env:"RATE_LIMIT_BURST" envDefault:"5"`
		// How often idle client buckets are dropped
		CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
	}

	Geocoding struct {
		Enabled  bool   `env:"GEOCODING_ENABLED" envDefault:"true"`
		BaseURL  string `env:"GEOCODING_URL" envDefault:"https://nominatim.openstreetmap.org/search"`
		CacheDir string `env:"GEOCODING_CACHE_DIR"`
		// Delay between uncached requests, Nominatim allows one per second
		Delay time.Duration `env:"GEOCODING_DELAY" envDefault:"1s"`

		BatchSize  int           `env:"GEOCODING_BATCH_SIZE" envDefault:"20"`
		MaxRetries int           `env:"GEOCODING_MAX_RETRIES" envDefault:"2"`
		RetryDelay time.Duration `env:"GEOCODING_RETRY_DELAY" envDefault:"5s"`
		// How often listings without coordinates are retried
		Interval time.Duration `env:"GEOCODING_INTERVAL" envDefault:"15m"`
	}
}

// SiteSettings are the values editable through the settings table.
type SiteSettings struct {
	WhatsAppNumber    string `env:"WHATSAPP_NUMBER" json:"whatsapp_number"`
	ContactEmail      string `env:"CONTACT_EMAIL" json:"contact_email"`
	NotificationEmail string `env:"NOTIFICATION_EMAIL" json:"notification_email"`
}

// IsDevelopment reports whether internal error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func LoadConfig() (*Config, error) {
	// A missing .env file is fine, the process environment is used as is
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.Auth.JWTSecret = DevelopmentJWTSecret
	}
	return cfg, nil
}

// ValidateServer checks the settings the API server cannot run without
func (c *Config) ValidateServer() error {
	if c.IsDevelopment() {
		return nil
	}
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DevelopmentJWTSecret {
		return ErrMissingJWTSecret
	}
	return nil
}
