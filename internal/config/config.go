// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all server configuration.
type Config struct {
	// HTTP
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`

	// Database
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns      int32         `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns      int32         `envconfig:"DB_MIN_CONNS" default:"5"`
	DBConnLifetime  time.Duration `envconfig:"DB_CONN_LIFETIME" default:"1h"`
	DBConnIdleTime  time.Duration `envconfig:"DB_CONN_IDLE_TIME" default:"30m"`

	// Auth boundary
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string `envconfig:"JWT_ISSUER" default:"stockshift"`

	// Ledger
	// Maximum attempts for the optimistic-concurrency retry loop before
	// a conflict is surfaced to the caller.
	StockMaxRetries int `envconfig:"STOCK_MAX_RETRIES" default:"5"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}
	return cfg, nil
}

// Development reports whether the server runs in development mode.
func (c Config) Development() bool {
	return c.AppEnv == "development"
}
