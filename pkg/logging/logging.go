// Package logging configures structured logging for the server and CLI.
//
// Development builds get colored output through tint; production gets JSON
// so log shippers can parse it.
//
// Usage:
//
//	logger := logging.New(logging.Options{Level: "debug"})
//	logging.Setup(logging.Options{Level: cfg.Log.Level, JSON: cfg.IsProduction()})
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options selects the handler.
type Options struct {
	// Level is one of debug, info, warn, error. Anything else means info.
	Level string

	// JSON switches from colored text to JSON lines.
	JSON bool

	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// New builds a logger for opts.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := ParseLevel(opts.Level)

	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level == slog.LevelDebug,
	}))
}

// Setup builds a logger for opts and installs it as the slog default.
func Setup(opts Options) *slog.Logger {
	logger := New(opts)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a LOG_LEVEL string to a slog level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
