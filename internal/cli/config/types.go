// Package config provides configuration management for the sqlmine CLI.
//
// Values are layered from built-in defaults, an optional sqlmine.yaml,
// SQLMINE_ environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"runtime"
	"time"
)

// SandboxConfig holds engine connection settings.
type SandboxConfig struct {
	// DSN is required by server engines (postgres) and optional otherwise.
	DSN string `koanf:"dsn"`
}

// Config holds all CLI configuration options.
type Config struct {
	Workers          int           `koanf:"workers"`
	Engine           string        `koanf:"engine"`
	Mode             string        `koanf:"mode"`
	ProgressInterval time.Duration `koanf:"progress_interval"`
	FlushInterval    time.Duration `koanf:"flush_interval"`
	ResultBuffer     int           `koanf:"result_buffer"`
	StatePath        string        `koanf:"state_path"`
	OutputEncoding   string        `koanf:"output_encoding"`
	LogLevel         string        `koanf:"log_level"`
	LogFormat        string        `koanf:"log_format"`
	TaxonomyFile     string        `koanf:"taxonomy_file"`
	ForceOverwrite   bool          `koanf:"force_overwrite"`
	Sandbox          SandboxConfig `koanf:"sandbox"`
}

// Default configuration values.
const (
	DefaultEngine           = "sqlite"
	DefaultMode             = "sandbox"
	DefaultProgressInterval = 20 * time.Second
	DefaultFlushInterval    = 500 * time.Millisecond
	DefaultResultBuffer     = 1024
	DefaultOutputEncoding   = "utf-8"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Workers:          runtime.NumCPU(),
		Engine:           DefaultEngine,
		Mode:             DefaultMode,
		ProgressInterval: DefaultProgressInterval,
		FlushInterval:    DefaultFlushInterval,
		ResultBuffer:     DefaultResultBuffer,
		OutputEncoding:   DefaultOutputEncoding,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
	}
}

func defaultMap() map[string]any {
	d := Defaults()
	return map[string]any{
		"workers":           d.Workers,
		"engine":            d.Engine,
		"mode":              d.Mode,
		"progress_interval": d.ProgressInterval.String(),
		"flush_interval":    d.FlushInterval.String(),
		"result_buffer":     d.ResultBuffer,
		"state_path":        "",
		"output_encoding":   d.OutputEncoding,
		"log_level":         d.LogLevel,
		"log_format":        d.LogFormat,
		"taxonomy_file":     "",
		"force_overwrite":   false,
		"sandbox.dsn":       "",
	}
}
