// Package config provides centralized configuration management for the
// campaign split pipeline. It loads configuration from environment variables
// with sensible defaults and validates all settings on startup to fail fast
// on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Pipeline PipelineConfig
	Output   OutputConfig
	History  HistoryConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// PipelineConfig holds input discovery settings.
type PipelineConfig struct {
	// InputDir is searched (non-recursively) for archives (default: files/input)
	InputDir string `env:"INPUT_DIR" default:"files/input"`

	// Pattern is the glob archives must match (default: *.csv.zip)
	Pattern string `env:"INPUT_PATTERN" default:"*.csv.zip"`

	// Timeout bounds the whole run; zero disables it (default: 0s)
	Timeout time.Duration `env:"RUN_TIMEOUT" default:"0s"`
}

// OutputConfig holds output sink settings.
type OutputConfig struct {
	// Dir receives client.csv, campaign.csv and economics.csv (default: files/output)
	Dir string `env:"OUTPUT_DIR" default:"files/output"`

	// Delimiter separates fields in the CSV outputs (default: ,)
	Delimiter string `env:"OUTPUT_DELIMITER" default:","`

	// XLSXPath, when set, also writes every group as a sheet of one workbook
	XLSXPath string `env:"XLSX_PATH"`
}

// HistoryConfig holds the local run ledger settings.
type HistoryConfig struct {
	// Path of the SQLite ledger; empty disables run history
	Path string `env:"HISTORY_DB_PATH"`
}

// DatabaseConfig holds the optional PostgreSQL sink settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; empty disables the sink.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Schema receives one table per group (default: public)
	Schema string `env:"DB_SCHEMA" default:"public"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Enabled reports whether the PostgreSQL sink is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// Enabled reports whether run history is recorded.
func (c *HistoryConfig) Enabled() bool {
	return c.Path != ""
}
