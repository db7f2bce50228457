// Package logging provides the structured logger used across core
// components, a thin wrapper over log/slog matching the adapter shape
// used elsewhere in the corpus for this concern.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps a *slog.Logger with context-aware level methods.
type Logger struct {
	l *slog.Logger
}

// New creates a Logger writing to stderr. When debug is true, Debug-level
// records are emitted; otherwise they are suppressed.
func New(debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{l: slog.New(handler)}
}

// NewWithWriter creates a Logger writing to an arbitrary writer, for tests.
func NewWithWriter(w io.Writer, debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{l: slog.New(handler)}
}

func (lg *Logger) Debug(ctx context.Context, msg string, args ...any) {
	lg.l.DebugContext(ctx, msg, args...)
}

func (lg *Logger) Info(ctx context.Context, msg string, args ...any) {
	lg.l.InfoContext(ctx, msg, args...)
}

func (lg *Logger) Warn(ctx context.Context, msg string, args ...any) {
	lg.l.WarnContext(ctx, msg, args...)
}

func (lg *Logger) Error(ctx context.Context, msg string, args ...any) {
	lg.l.ErrorContext(ctx, msg, args...)
}

// With returns a Logger that always carries the given attributes.
func (lg *Logger) With(args ...any) *Logger {
	return &Logger{l: lg.l.With(args...)}
}
