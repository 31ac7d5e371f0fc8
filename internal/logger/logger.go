// Package logger provides structured logging configuration using log/slog.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text" or "json"

	// Output defaults to os.Stderr
	Output io.Writer
}

// NewLogger creates a configured slog.Logger.
func NewLogger(cfg Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
		// Add a source location for debug level
		AddSource: cfg.Level <= slog.LevelDebug,
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a level name to a slog.Level.
// Valid values: DEBUG, INFO, WARN, WARNING, ERROR (case-insensitive).
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// DefaultConfig returns the default logger configuration.
// CADENCE_LOG_LEVEL sets the level (default INFO) and CADENCE_LOG_FORMAT
// selects "text" or "json" (default text). Invalid values fall back to the defaults.
func DefaultConfig() Config {
	level, err := ParseLevel(os.Getenv("CADENCE_LOG_LEVEL"))
	if err != nil {
		level = slog.LevelInfo
	}

	format := "text"
	if strings.EqualFold(os.Getenv("CADENCE_LOG_FORMAT"), "json") {
		format = "json"
	}

	return Config{
		Level:  level,
		Format: format,
	}
}
