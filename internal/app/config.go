package app

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	File string // task file or directory of .hcl files

	Workers   int
	LogLevel  string
	LogFormat string
	NoColor   bool

	// Overrides of the task file; zero values keep the task file's choice.
	Port     int
	Open     string // "none" disables opening
	Debounce time.Duration
}

// NewConfig validates cfg and returns a normalized copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.File == "" {
		return nil, eris.New("task file path must not be empty")
	}
	if cfg.Workers < 1 {
		return nil, eris.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, eris.Errorf("invalid log level %q: must be debug, info, warn or error", cfg.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, eris.Errorf("invalid log format %q: must be text or json", cfg.LogFormat)
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, eris.Errorf("port %d out of range", cfg.Port)
	}
	switch cfg.Open {
	case "", "none", "local", "external":
	default:
		return nil, eris.Errorf("invalid open mode %q: must be local, external or none", cfg.Open)
	}
	if cfg.Debounce < 0 {
		return nil, eris.New("debounce must not be negative")
	}

	return &cfg, nil
}
