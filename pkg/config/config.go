// Package config loads the optional issuer configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/defs"
	"gopkg.in/yaml.v3"
)

// Config holds issuer configuration.
type Config struct {
	// APIInfo overrides daemon discovery, same format as FULLNODE_API_INFO.
	APIInfo string        `yaml:"api_info"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   Retry         `yaml:"retry"`
	Log     Log           `yaml:"log"`
}

// Retry configures the opt-in retry of transient chain failures.
// MaxAttempts of 0 or 1 keeps the fail-fast default.
type Retry struct {
	MaxAttempts uint          `yaml:"max_attempts"`
	MaxElapsed  time.Duration `yaml:"max_elapsed"`
}

// Log configures the stderr logger, warn level with the text handler by default.
type Log struct {
	Level   defs.LogLevel   `yaml:"level"`
	Handler defs.LogHandler `yaml:"handler"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Timeout: constants.DefaultRPCTimeout,
		Log: Log{
			Level:   defs.LogLevelWarn,
			Handler: defs.TextHandler,
		},
	}
}

// Load reads the YAML file at path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate normalizes enum values and checks ranges.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if c.Retry.MaxElapsed < 0 {
		return fmt.Errorf("retry.max_elapsed must not be negative, got %s", c.Retry.MaxElapsed)
	}

	level, err := defs.ParseLogLevelStr(string(c.Log.Level))
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	c.Log.Level = level

	handler, err := defs.ParseHandlerTypeStr(string(c.Log.Handler))
	if err != nil {
		return fmt.Errorf("log.handler: %w", err)
	}
	c.Log.Handler = handler

	return nil
}
