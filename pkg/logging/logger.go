package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "requestID"

// LevelTrace is below debug and used for per-vertex and per-flow detail
const LevelTrace = slog.LevelDebug - 4

var logger atomic.Pointer[slog.Logger]

// output is where console logs go. Reports are printed on stdout, so logs
// default to stderr.
var output io.Writer = os.Stderr

func init() {
	// Initialize with compact handler for readable console output
	handler := NewCompactHandler(output, &slog.HandlerOptions{
		Level: slog.LevelInfo, // Default level
	})
	logger.Store(slog.New(handler))
}

// SetOutput redirects log output, keeping the current level and format
func SetOutput(w io.Writer, level slog.Level, json bool) {
	output = w
	if json {
		SetJSONOutput(level)
	} else {
		SetLevel(level)
	}
}

// SetLevel changes the logging level
func SetLevel(level slog.Level) {
	handler := NewCompactHandler(output, &slog.HandlerOptions{
		Level: level,
	})
	logger.Store(slog.New(handler))
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput(level slog.Level) {
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: level,
	})
	logger.Store(slog.New(handler))
}

// ParseLevel maps a level name to a slog level.
// Accepted names: trace, debug, info, warn, error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// LevelForVerbosity maps a -v count to a level: 0 info, 1 debug, 2+ trace
func LevelForVerbosity(count int) slog.Level {
	switch {
	case count >= 2:
		return LevelTrace
	case count == 1:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// New returns a logger tagged with the given component name.
// The logger follows later SetLevel/SetJSONOutput calls.
func New(component string) *slog.Logger {
	return slog.New(&componentHandler{component: component})
}

// componentHandler resolves the current package logger on every call so
// component loggers created at init time see level changes
type componentHandler struct {
	component string
	attrs     []slog.Attr
	group     string
}

func (h *componentHandler) handler() slog.Handler {
	base := logger.Load().Handler().WithAttrs([]slog.Attr{slog.String("component", h.component)})
	if len(h.attrs) > 0 {
		base = base.WithAttrs(h.attrs)
	}
	if h.group != "" {
		base = base.WithGroup(h.group)
	}
	return base
}

func (h *componentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return logger.Load().Handler().Enabled(ctx, level)
}

func (h *componentHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler().Handle(ctx, r)
}

func (h *componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &componentHandler{
		component: h.component,
		attrs:     append(append([]slog.Attr{}, h.attrs...), attrs...),
		group:     h.group,
	}
}

func (h *componentHandler) WithGroup(name string) slog.Handler {
	return &componentHandler{component: h.component, attrs: h.attrs, group: name}
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// Helper function to add request ID to log attributes if present
func withRequestID(ctx context.Context, args []any) []any {
	requestID := GetRequestID(ctx)
	if requestID != "" {
		return append([]any{"requestID", requestID}, args...)
	}
	return args
}

// Trace logs at TRACE level (very verbose, debug-time only)
func Trace(msg string, args ...any) {
	logger.Load().Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at TRACE level with context
func TraceContext(ctx context.Context, msg string, args ...any) {
	logger.Load().Log(ctx, LevelTrace, msg, withRequestID(ctx, args)...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logger.Load().Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.Load().DebugContext(ctx, msg, withRequestID(ctx, args)...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logger.Load().Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.Load().InfoContext(ctx, msg, withRequestID(ctx, args)...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	logger.Load().Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	logger.Load().WarnContext(ctx, msg, withRequestID(ctx, args)...)
}

// Error logs at ERROR level (logical bugs that shouldn't happen)
func Error(msg string, args ...any) {
	logger.Load().Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.Load().ErrorContext(ctx, msg, withRequestID(ctx, args)...)
}
