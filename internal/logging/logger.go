// Package logging builds the zerolog loggers used across the bootstrap.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config contains logger configuration.
type Config struct {
	Level  string    // trace, debug, info, warn or error
	Pretty bool      // console writer instead of JSON on Output
	Output io.Writer // defaults to os.Stdout, the game's console when it has one

	// FilePath, when set, also writes JSON lines to this file. The file is
	// truncated on every boot.
	FilePath string
}

// DefaultConfig is used before the bootstrap configuration is loaded.
func DefaultConfig() Config {
	return Config{Level: "info", Pretty: true, Output: os.Stdout}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(name) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates a new zerolog logger with the given configuration.
func New(cfg Config) zerolog.Logger {
	return newLogger(cfg, nil)
}

// Open is New plus the optional log file. The returned closer must be closed
// on shutdown; it is a no-op when no file is configured.
func Open(cfg Config) (zerolog.Logger, io.Closer, error) {
	if cfg.FilePath == "" {
		return newLogger(cfg, nil), nopCloser{}, nil
	}

	//nolint:gosec // G301: log directory needs standard permissions.
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	//nolint:gosec // G304: path comes from the bootstrap configuration.
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return newLogger(cfg, f), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger tees to file, when given, as plain JSON regardless of Pretty so
// the file stays machine readable.
func newLogger(cfg Config, file io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05.000"}
	}

	if file != nil {
		output = zerolog.MultiLevelWriter(output, file)
	}

	return zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// NewWithComponent is New tagged with a component field.
func NewWithComponent(cfg Config, component string) zerolog.Logger {
	return New(cfg).With().Str("component", component).Logger()
}
