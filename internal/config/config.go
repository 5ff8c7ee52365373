// Package config defines service configuration and its layered loading.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// ModelPath points at the exported artifact bundle (.json, .yaml or .yml).
	ModelPath string `koanf:"model_path"`

	// MaxBatchSize caps the number of items in one bulk import.
	MaxBatchSize int `koanf:"max_batch_size"`
	// ListLimit is the default and maximum page size of GET /products/{partition}.
	ListLimit int `koanf:"list_limit"`

	// CORSOrigins lists allowed origins, comma separated. "*" allows any.
	CORSOrigins string `koanf:"cors_origins"`
	// RateLimitPerMinute limits write requests per client IP. 0 disables it.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// BreakerEnabled wraps each partition's inserts in a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`
	// BreakerFailures is the consecutive failure count that opens a breaker.
	BreakerFailures int `koanf:"breaker_failures"`
	// BreakerTimeoutMS is how long an open breaker waits before a trial insert.
	BreakerTimeoutMS int `koanf:"breaker_timeout_ms"`

	// DBConnectTimeoutMS bounds each partition connection attempt.
	DBConnectTimeoutMS int `koanf:"db_connect_timeout_ms"`

	HommeDBDriver   string `koanf:"homme_db_driver"`
	HommeDBHost     string `koanf:"homme_db_host"`
	HommeDBPort     int    `koanf:"homme_db_port"`
	HommeDBName     string `koanf:"homme_db_name"`
	HommeDBUser     string `koanf:"homme_db_user"`
	HommeDBPassword string `koanf:"homme_db_password"`
	HommeDBSSLMode  string `koanf:"homme_db_sslmode"`
	HommeDBPath     string `koanf:"homme_db_path"`

	FemmeDBDriver   string `koanf:"femme_db_driver"`
	FemmeDBHost     string `koanf:"femme_db_host"`
	FemmeDBPort     int    `koanf:"femme_db_port"`
	FemmeDBName     string `koanf:"femme_db_name"`
	FemmeDBUser     string `koanf:"femme_db_user"`
	FemmeDBPassword string `koanf:"femme_db_password"`
	FemmeDBSSLMode  string `koanf:"femme_db_sslmode"`
	FemmeDBPath     string `koanf:"femme_db_path"`
}

// New creates a Config with defaults. The partition defaults match the
// docker-compose service names of the deployment.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":8000",
		ModelPath:          "models/product_gender_classifier.json",
		MaxBatchSize:       1000,
		ListLimit:          100,
		CORSOrigins:        "*",
		RateLimitPerMinute: 600,
		BreakerEnabled:     false,
		BreakerFailures:    5,
		BreakerTimeoutMS:   30_000,
		DBConnectTimeoutMS: 5_000,

		HommeDBDriver:   "postgres",
		HommeDBHost:     "postgres-homme",
		HommeDBPort:     5432,
		HommeDBName:     "homme_db",
		HommeDBUser:     "postgres",
		HommeDBPassword: "postgres",
		HommeDBSSLMode:  "disable",
		HommeDBPath:     "data/homme.db",

		FemmeDBDriver:   "postgres",
		FemmeDBHost:     "postgres-femme",
		FemmeDBPort:     5432,
		FemmeDBName:     "femme_db",
		FemmeDBUser:     "postgres",
		FemmeDBPassword: "postgres",
		FemmeDBSSLMode:  "disable",
		FemmeDBPath:     "data/femme.db",
	}
}

// AllowedOrigins splits CORSOrigins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// BreakerTimeout returns BreakerTimeoutMS as a duration.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutMS) * time.Millisecond
}

// DBConnectTimeout returns DBConnectTimeoutMS as a duration.
func (c *Config) DBConnectTimeout() time.Duration {
	return time.Duration(c.DBConnectTimeoutMS) * time.Millisecond
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ModelPath == "":
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	case c.MaxBatchSize <= 0:
		return fmt.Errorf("%w: max_batch_size must be positive, got %d", ErrInvalidConfig, c.MaxBatchSize)
	case c.ListLimit <= 0:
		return fmt.Errorf("%w: list_limit must be positive, got %d", ErrInvalidConfig, c.ListLimit)
	case c.RateLimitPerMinute < 0:
		return fmt.Errorf("%w: rate_limit_per_minute must not be negative", ErrInvalidConfig)
	case c.BreakerEnabled && c.BreakerFailures <= 0:
		return fmt.Errorf("%w: breaker_failures must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	for _, p := range []struct{ name, driver, path string }{
		{"homme", c.HommeDBDriver, c.HommeDBPath},
		{"femme", c.FemmeDBDriver, c.FemmeDBPath},
	} {
		switch p.driver {
		case "postgres":
		case "bolt":
			if p.path == "" {
				return fmt.Errorf("%w: %s_db_path is required for the bolt driver", ErrInvalidConfig, p.name)
			}
		default:
			return fmt.Errorf("%w: %s_db_driver must be postgres or bolt, got %q", ErrInvalidConfig, p.name, p.driver)
		}
	}
	return nil
}
