package logging

import (
	"io"
	"log/slog"

	"github.com/ribasushi/go-fil-spid/pkg/defs"
)

const (
	ComponentKey = "component"
	ErrorKey     = "error"
)

// New creates a logger writing to w with the configured level and handler type.
func New(w io.Writer, level defs.LogLevel, handler defs.LogHandler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}

	if handler == defs.JSONHandler {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Child returns a new logger with the given component name added to the logger attrs.
func Child(logger *slog.Logger, componentName string) *slog.Logger {
	return DefaultIfNil(logger).With(
		slog.String(ComponentKey, componentName),
	)
}

func Error(err error) slog.Attr {
	return slog.String(ErrorKey, err.Error())
}

// DefaultIfNil returns the default logger if the given logger is nil.
func DefaultIfNil(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
