// Package logger provides structured logging backed by log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Level represents a logging level.
type Level int

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerInterface is the logging contract used across the application.
// The c-suffixed variants accept an additional caller skip count so
// wrappers can report their caller's location.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

// Logger implements LoggerInterface on top of slog.
type Logger struct {
	handler slog.Handler
	level   Level
}

// New creates a Logger writing JSON records to w at the given level.
// service is attached to every record; attrs are optional static attributes.
func New(w io.Writer, level Level, service string, attrs []slog.Attr) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level.slog(),
		AddSource: true,
	})
	base := []slog.Attr{slog.String("service", service)}
	base = append(base, attrs...)
	return &Logger{
		handler: h.WithAttrs(base),
		level:   level,
	}
}

func (l *Logger) log(ctx context.Context, level Level, caller int, msg string, args ...any) {
	sl := level.slog()
	if !l.handler.Enabled(ctx, sl) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3+caller, pcs[:])
	r := slog.NewRecord(time.Now(), sl, msg, pcs[0])
	r.Add(args...)
	_ = l.handler.Handle(ctx, r)
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelDebug, 0, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelInfo, 0, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelWarn, 0, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelError, 0, msg, args...)
}

func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.log(ctx, LevelDebug, caller, msg, args...)
}

func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.log(ctx, LevelInfo, caller, msg, args...)
}

func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.log(ctx, LevelWarn, caller, msg, args...)
}

func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.log(ctx, LevelError, caller, msg, args...)
}

var _ LoggerInterface = (*Logger)(nil)
