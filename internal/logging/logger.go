package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

type requestIDKey struct{}

// WithRequestID stores the request id on ctx.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID returns the request id stored on ctx, or "" if none.
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// Setup installs a JSON slog handler as the process default.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	return l
}

// Logger is a request-scoped logger tagging every line with the request id.
type Logger struct {
	l *slog.Logger
}

// New creates a logger with request context
func New(ctx context.Context) *Logger {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return &Logger{l: slog.Default().With("request_id", requestID)}
}

// With returns a logger carrying additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l: l.l.With(args...)}
}

func (l *Logger) LogError(operation string, err error) {
	l.l.Error(operation, "operation", operation, "error", err)
}

func (l *Logger) LogErrorf(operation string, format string, args ...any) {
	l.l.Error(fmt.Sprintf(format, args...), "operation", operation)
}

func (l *Logger) LogInfof(operation string, format string, args ...any) {
	l.l.Info(fmt.Sprintf(format, args...), "operation", operation)
}

func (l *Logger) LogWarnf(operation string, format string, args ...any) {
	l.l.Warn(fmt.Sprintf(format, args...), "operation", operation)
}
