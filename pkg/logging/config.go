// Package logging provides structured logging with request and tenant
// context plus credential redaction.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the logging configuration.
type Config struct {
	// Level sets the minimum log level: debug, info, warn, error
	Level string `envconfig:"LEVEL" default:"info" validate:"omitempty,oneof=debug info warn warning error"`

	// Format specifies the output format: json or text
	Format string `envconfig:"FORMAT" default:"json" validate:"omitempty,oneof=json text"`

	// Output specifies the output destination: stdout, stderr, or a file path
	Output string `envconfig:"OUTPUT" default:"stdout"`

	// AddSource adds source file and line number to log entries
	AddSource bool `envconfig:"ADD_SOURCE" default:"false"`

	// SampleRate for debug logs (0.0-1.0, 1.0 = log all)
	SampleRate float64 `envconfig:"SAMPLE_RATE" default:"1.0" validate:"gte=0,lte=1"`

	// Redact scrubs credentials from attribute values before they are written.
	Redact bool `envconfig:"REDACT" default:"true"`

	// RedactFields are extra attribute keys whose values are always replaced.
	RedactFields []string `envconfig:"REDACT_FIELDS"`
}

// DefaultConfig returns sensible defaults for logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		AddSource:  false,
		SampleRate: 1.0,
		Redact:     true,
	}
}

// ConfigFromEnv reads LOG_* environment variables on top of the defaults.
// Unparseable values leave the defaults in place.
func ConfigFromEnv() Config {
	var cfg Config
	if err := envconfig.Process("LOG", &cfg); err != nil {
		return DefaultConfig()
	}
	cfg.Level = strings.ToLower(cfg.Level)
	cfg.Format = strings.ToLower(cfg.Format)
	return cfg
}

// ParseLevel converts a string level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetOutput returns the io.Writer for the configured output.
func (c Config) GetOutput() io.Writer {
	switch c.Output {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	default:
		f, err := os.OpenFile(c.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return os.Stdout
		}
		return f
	}
}
