// Package config loads the YAML configuration used by the litedriver
// binaries.
package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/schemaforge/litedriver/internal/database"
	"github.com/schemaforge/litedriver/internal/errs"
	"github.com/schemaforge/litedriver/internal/logger"
)

// Config is the top-level configuration file shape.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig configures the SQLite connection.
type DatabaseConfig struct {
	Path          string `yaml:"path"`
	ForeignKeys   *bool  `yaml:"foreign_keys"` // nil means on
	JournalMode   string `yaml:"journal_mode"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput,
			fmt.Sprintf("cannot read config file %q", path), err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput,
			fmt.Sprintf("cannot parse config file %q", path), err)
	}

	if cfg.Database.Path == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "database.path is required")
	}
	return &cfg, nil
}

// DatabaseConfig converts the file shape into the driver's Config,
// filling unset fields with the driver defaults.
func (c *Config) DatabaseConfig() *database.Config {
	out := database.DefaultConfig(c.Database.Path)
	if c.Database.ForeignKeys != nil {
		out.ForeignKeys = *c.Database.ForeignKeys
	}
	if c.Database.JournalMode != "" {
		out.JournalMode = c.Database.JournalMode
	}
	if c.Database.BusyTimeoutMS > 0 {
		out.BusyTimeout = time.Duration(c.Database.BusyTimeoutMS) * time.Millisecond
	}
	return out
}

// LoggerConfig converts the file shape into the logger's Config.
func (c *Config) LoggerConfig() *logger.Config {
	out := logger.DefaultConfig()
	if c.Log.Level != "" {
		out.Level = c.Log.Level
	}
	if c.Log.Format != "" {
		out.Format = c.Log.Format
	}
	return out
}
