package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/sqlmine/internal/sink"
	"github.com/leapstack-labs/sqlmine/pkg/classify"
	"github.com/leapstack-labs/sqlmine/pkg/sandbox"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if !sandbox.IsRegistered(c.Engine) {
		return &sandbox.UnknownEngineError{Engine: c.Engine, Available: sandbox.ListEngines()}
	}
	if c.Engine == "postgres" && c.Sandbox.DSN == "" {
		return fmt.Errorf("engine postgres requires sandbox.dsn\nHint: set it in sqlmine.yaml, SQLMINE_SANDBOX_DSN or --dsn")
	}
	if _, err := classify.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("progress_interval must be positive, got %s", c.ProgressInterval)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be positive, got %s", c.FlushInterval)
	}
	if c.ResultBuffer < 1 {
		return fmt.Errorf("result_buffer must be at least 1, got %d", c.ResultBuffer)
	}
	if _, err := sink.LookupEncoding(c.OutputEncoding); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log_format %q (expected text or json)", c.LogFormat)
	}
	if c.TaxonomyFile != "" {
		if _, err := os.Stat(c.TaxonomyFile); err != nil {
			return fmt.Errorf("taxonomy file: %w", err)
		}
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
