// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON slog logger on stdout and installs it as the default.
// Debug lowers the level and adds source locations.
func New(debug bool) *slog.Logger {
	logger := NewWithWriter(os.Stdout, debug)
	slog.SetDefault(logger)
	return logger
}

// NewWithWriter is New without touching the global default.
func NewWithWriter(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	addSource := false
	if debug {
		level = slog.LevelDebug
		addSource = true
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: addSource,
		Level:     level,
	}))
}
