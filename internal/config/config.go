// Package config defines service configuration and how it is loaded.
package config

import (
	"time"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":3001".
	Addr string `koanf:"addr" validate:"required"`

	// Store picks the patient repository backend.
	Store string `koanf:"store" validate:"oneof=memory postgres"`

	// DatabaseURL is the PostgreSQL connection string, required for the
	// postgres store.
	DatabaseURL string `koanf:"database_url" validate:"required_if=Store postgres"`

	// Redis holds the to-do statistics counter.
	RedisAddr     string `koanf:"redis_addr" validate:"required"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"min=0"`

	// TodoCounterKey is the Redis key read by GET /statistics.
	TodoCounterKey string `koanf:"todo_counter_key" validate:"required"`

	// SeedData loads the bundled diagnoses and patients at startup.
	SeedData bool `koanf:"seed_data"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"min=1"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":3001",
		Store:           StoreMemory,
		RedisAddr:       "localhost:6379",
		TodoCounterKey:  "added_todos",
		SeedData:        true,
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 10 * time.Second,
	}
}
