// internal/logging/logger.go

// Package logging builds the slog loggers used across the daemon and
// CLI, including a size-based rotating file writer.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger creates a structured logger writing to w. Format is "json"
// or "text"; level is one of debug, info, warn, error.
func NewLogger(format string, level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// WithRule returns a logger with the rule name attached
func WithRule(logger *slog.Logger, ruleName string) *slog.Logger {
	return logger.With("rule", ruleName)
}

// WithComponent returns a logger scoped to a daemon subsystem
func WithComponent(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("component", name)
}
