// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	InitLogging(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"), os.Stdout)
}

// InitLogging replaces GlobalLogger. Production gets JSON output, every other
// environment gets the text handler.
func InitLogging(env, level string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	GlobalLogger = &Logger{Logger: slog.New(&ctxHandler{handler})}
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
	RequestID     LogContextKey = "request_id"
	TraceID       LogContextKey = "trace_id"
	UserID        LogContextKey = "user_id"
)

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, key := range []LogContextKey{RequestID, CorrelationID, TraceID, UserID} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			r.AddAttrs(slog.String(string(key), v))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// OpLogger provides structured logging for state container operations.
type OpLogger struct {
	container string
}

// NewOpLogger creates a new OpLogger for the named container.
func NewOpLogger(container string) *OpLogger {
	return &OpLogger{container: container}
}

func (l *OpLogger) attrs(op string, fields map[string]any) []any {
	attrs := []any{
		slog.String("container", l.container),
		slog.String("operation", op),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// LogStart logs the start of an operation that waits on simulated latency.
func (l *OpLogger) LogStart(ctx context.Context, op string, fields map[string]any) {
	GlobalLogger.DebugContext(ctx, "operation started", l.attrs(op, fields)...)
}

// LogEnd logs a completed operation and how long it took.
func (l *OpLogger) LogEnd(ctx context.Context, op string, started time.Time, fields map[string]any) {
	attrs := append(l.attrs(op, fields), slog.Duration("elapsed", time.Since(started)))
	GlobalLogger.InfoContext(ctx, "operation completed", attrs...)
}

// LogRejected logs an operation that returned a validation failure.
func (l *OpLogger) LogRejected(ctx context.Context, op, reason string) {
	GlobalLogger.InfoContext(ctx, "operation rejected", l.attrs(op, map[string]any{"reason": reason})...)
}

// LogError logs an operation that failed unexpectedly.
func (l *OpLogger) LogError(ctx context.Context, op string, err error) {
	GlobalLogger.ErrorContext(ctx, "operation failed", l.attrs(op, map[string]any{"error": err.Error()})...)
}

// LogNoop logs an operation that matched nothing and left state untouched.
func (l *OpLogger) LogNoop(ctx context.Context, op string, fields map[string]any) {
	GlobalLogger.DebugContext(ctx, "operation no-op", l.attrs(op, fields)...)
}
