// Package config provides centralized configuration management for the ETL.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"path/filepath"
	"time"
)

// WarehouseFile is the SQLite file name under $DATA_DIR/dw.
const WarehouseFile = "smart_sales.db"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Data      DataConfig
	Warehouse WarehouseConfig
	Logging   LoggingConfig
}

// DataConfig holds the locations of raw and prepared CSVs.
type DataConfig struct {
	// Dir is the root data directory (default: data)
	Dir string `env:"DATA_DIR" default:"data"`

	// RawDir holds the raw CSVs (default: $DATA_DIR/raw)
	RawDir string `env:"RAW_DIR"`

	// PreparedDir receives the prepared CSVs (default: $DATA_DIR/prepared)
	PreparedDir string `env:"PREPARED_DIR"`
}

// WarehouseConfig holds warehouse connection and load settings.
type WarehouseConfig struct {
	// Driver is the database/sql driver: sqlite3 or pgx (default: sqlite3)
	Driver string `env:"WAREHOUSE_DRIVER" default:"sqlite3"`

	// DSN is the data source name (default: $DATA_DIR/dw/smart_sales.db)
	// Supports both WAREHOUSE_DSN and DATABASE_URL env vars
	DSN string `env:"WAREHOUSE_DSN" envAlt:"DATABASE_URL"`

	// BatchSize is the number of rows per INSERT (default: 500)
	BatchSize int `env:"WAREHOUSE_BATCH_SIZE" default:"500"`

	// Timeout bounds a whole load (default: 5m)
	Timeout time.Duration `env:"WAREHOUSE_TIMEOUT" default:"5m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// applyDerived fills directories and the DSN that default relative to
// DATA_DIR.
func (c *Config) applyDerived() {
	if c.Data.RawDir == "" {
		c.Data.RawDir = filepath.Join(c.Data.Dir, "raw")
	}
	if c.Data.PreparedDir == "" {
		c.Data.PreparedDir = filepath.Join(c.Data.Dir, "prepared")
	}
	if c.Warehouse.DSN == "" && c.Warehouse.Driver == "sqlite3" {
		c.Warehouse.DSN = filepath.Join(c.Data.Dir, "dw", WarehouseFile)
	}
}

// RawPath returns the path of a raw CSV.
func (c *DataConfig) RawPath(name string) string {
	return filepath.Join(c.RawDir, name)
}

// PreparedPath returns the path of a prepared CSV.
func (c *DataConfig) PreparedPath(name string) string {
	return filepath.Join(c.PreparedDir, name)
}
