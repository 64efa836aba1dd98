// Package logger wraps log/slog with the handler-selection and
// package-level default that the rest of the service relies on.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Config selects the log level and output format.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // json|text
}

// Logger is a thin wrapper around *slog.Logger so call sites stay
// stable even if the underlying handler changes.
type Logger struct {
	*slog.Logger
}

var def *Logger

// New builds a Logger from Config, defaulting to info/text.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// SetDefault installs l as the package-level default and as slog's
// own default, so libraries that call slog.Info etc. land in the same
// stream.
func SetDefault(l *Logger) {
	def = l
	slog.SetDefault(l.Logger)
}

// Default returns the process-wide default Logger, creating a
// reasonable one if SetDefault was never called.
func Default() *Logger {
	if def == nil {
		def = New(Config{Level: "info", Format: "text"})
	}
	return def
}

// With returns a Logger with the given key/value pairs attached to
// every subsequent log line.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func parseLevel(level string) slog.Level {
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
