// control/logging.go
// Author: momentics <momentics@gmail.com>
//
// Structured logger factory.

package control

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log formats accepted by LoggerConfig.
const (
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
)

// LoggerConfig selects level, format and destination of a logger.
type LoggerConfig struct {
	Level   string
	Format  string
	Service string
	// Output defaults to os.Stdout.
	Output io.Writer
}

// NewLogger creates a zerolog logger with timestamp and service fields.
// Unknown levels fall back to info.
func NewLogger(cfg LoggerConfig) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Format == LogFormatPretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	service := cfg.Service
	if service == "" {
		service = "evpool"
	}
	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// ParseLevel converts a level name, returning info for unknown names.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// LoggerConfig returns the logger settings of the configuration.
func (c *Config) LoggerConfig() LoggerConfig {
	return LoggerConfig{Level: c.LogLevel, Format: c.LogFormat}
}
