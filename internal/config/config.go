// Package config loads the CLI and server settings from environment
// variables, optionally seeded from a .env file.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Logging LoggingConfig
	Pivot   PivotConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"PIVOT_HOST" default:"127.0.0.1"`
	Port            int           `env:"PIVOT_PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"PIVOT_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"PIVOT_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"PIVOT_SHUTDOWN_TIMEOUT" default:"10s"`

	// MaxBodyBytes caps request bodies (default: 10MB)
	MaxBodyBytes int64 `env:"PIVOT_MAX_BODY_BYTES" default:"10485760"`
}

// StorageConfig selects where named pivot configurations live.
type StorageConfig struct {
	// Driver is one of: memory, file, postgres
	Driver string `env:"PIVOT_STORAGE" default:"memory"`

	// Dir is the directory of the file driver
	Dir string `env:"PIVOT_STORAGE_DIR" default:"pivot-configs"`

	// DatabaseURL is the postgres connection string
	DatabaseURL string `env:"DATABASE_URL" envAlt:"PIVOT_DATABASE_URL"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// PivotConfig holds engine defaults.
type PivotConfig struct {
	GrandTotalForRow    bool `env:"PIVOT_GRAND_TOTAL_ROW" default:"true"`
	GrandTotalForColumn bool `env:"PIVOT_GRAND_TOTAL_COLUMN" default:"true"`
	MaxCalculationDepth int  `env:"PIVOT_MAX_CALCULATION_DEPTH" default:"8"`
}
