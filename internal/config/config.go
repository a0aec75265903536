package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	DBConn   string `env:"DB_CONN" envDefault:"host=localhost port=5432 user=test password=test dbname=users sslmode=disable"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`

	// AuthMode selects how bearer tokens are validated: "remote" calls the
	// auth service, "local" verifies the JWT signature in-process.
	AuthMode       string `env:"AUTH_MODE" envDefault:"remote"`
	AuthServiceURL string `env:"AUTH_SERVICE_URL" envDefault:"http://auth-service:8081"`
	JWTSecret      string `env:"JWT_SECRET" envDefault:"secret"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SenderEmail  string `env:"SENDER_EMAIL" envDefault:"noreply@user-service.local"`

	ExpirySweepCron string `env:"EXPIRY_SWEEP_CRON" envDefault:"@daily"`
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	switch cfg.AuthMode {
	case "remote":
		if cfg.AuthServiceURL == "" {
			return nil, fmt.Errorf("AUTH_SERVICE_URL is required for remote auth mode")
		}
	case "local":
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required for local auth mode")
		}
	default:
		return nil, fmt.Errorf("unsupported AUTH_MODE: %s", cfg.AuthMode)
	}

	return cfg, nil
}
