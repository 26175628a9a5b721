package logger

import (
	"context"
	"log/slog"
	"os"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// Logger is the structured logger used by every service. Each log line
// carries the service name and a machine-readable action tag.
type Logger interface {
	Debug(ctx context.Context, action, message string, args ...any)
	Info(ctx context.Context, action, message string, args ...any)
	Warn(ctx context.Context, action, message string, args ...any)
	Error(ctx context.Context, action, message string, err error, args ...any)
}

type logger struct {
	log *slog.Logger
}

// InitLogger creates a JSON logger for the named service.
func InitLogger(service string, level Level) Logger {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelError:
		slogLevel = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel,
	})

	return &logger{
		log: slog.New(handler).With("service", service),
	}
}

func (l *logger) Debug(ctx context.Context, action, message string, args ...any) {
	l.log.DebugContext(ctx, message, append([]any{"action", action}, args...)...)
}

func (l *logger) Info(ctx context.Context, action, message string, args ...any) {
	l.log.InfoContext(ctx, message, append([]any{"action", action}, args...)...)
}

func (l *logger) Warn(ctx context.Context, action, message string, args ...any) {
	l.log.WarnContext(ctx, message, append([]any{"action", action}, args...)...)
}

func (l *logger) Error(ctx context.Context, action, message string, err error, args ...any) {
	l.log.ErrorContext(ctx, message, append([]any{"action", action, "error", err}, args...)...)
}
