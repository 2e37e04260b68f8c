package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/ctslab/internal/observability"
)

// Config is read from the environment. Command-line flags take precedence
// over every field.
type Config struct {
	DB       string  `env:"CTSLAB_DB"`
	Until    float64 `env:"CTSLAB_UNTIL" envDefault:"10"`
	Interval float64 `env:"CTSLAB_INTERVAL" envDefault:"0"`
	LogLevel string  `env:"CTSLAB_LOG_LEVEL" envDefault:"warn"`

	Tracing observability.TracingConfig `envPrefix:"CTSLAB_TRACING_"`
}

// LoadConfig parses Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Until < 0 || cfg.Interval < 0 {
		return Config{}, fmt.Errorf("parse env: CTSLAB_UNTIL and CTSLAB_INTERVAL must be non-negative")
	}
	return cfg, nil
}

// Level maps LogLevel to a slog level. Unknown names mean warn.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
