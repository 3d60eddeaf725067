// Package logging configures the process-wide structured logger.
//
// The default handler prints compact single-line console output (see
// CompactHandler); SetJSONOutput swaps in line-delimited JSON for machine
// consumption. Components obtain named child loggers through New, and HTTP
// handlers get per-request IDs via RequestLogger.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// LevelTrace sits below slog.LevelDebug for per-edge and per-event noise
// that even --verbosity=verbose should not print.
const LevelTrace = slog.LevelDebug - 4

var (
	// level is shared by every handler installed here, so SetLevel also
	// reaches child loggers created before the call.
	level  slog.LevelVar
	logger = slog.New(NewCompactHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
)

// New returns a logger scoped to one component, e.g. "source.depfile".
// The name appears as component=<name> on every line. Children follow
// SetLevel but capture the output format current at call time, so switch
// formats before wiring components.
func New(name string) *slog.Logger {
	return logger.With("component", name)
}

// SetLevel sets the minimum level for all loggers in the process.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetJSONOutput replaces the console handler with line-delimited JSON on
// stderr. Level filtering still follows SetLevel.
func SetJSONOutput() {
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
}

// LevelFromVerbosity maps the --verbosity flag to a log level. Unknown or
// empty values mean Info.
func LevelFromVerbosity(v string) slog.Level {
	switch v {
	case "quiet":
		return slog.LevelWarn
	case "verbose":
		return slog.LevelDebug
	case "debug":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// contextKey keeps our context values from colliding with other packages.
type contextKey string

const requestIDKey contextKey = "requestID"

// WithRequestID returns a context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the request ID stored in ctx, or "" when absent.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestID prepends the context's request ID to the attribute list
// so request-scoped lines correlate without every caller passing it.
func withRequestID(ctx context.Context, args []any) []any {
	if id := GetRequestID(ctx); id != "" {
		return append([]any{"requestID", id}, args...)
	}
	return args
}

// Trace logs below DEBUG for high-volume diagnostics.
func Trace(msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at TRACE level with context.
func TraceContext(ctx context.Context, msg string, args ...any) {
	logger.Log(ctx, LevelTrace, msg, withRequestID(ctx, args)...)
}

// Debug logs internal component behavior.
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.DebugContext(ctx, msg, withRequestID(ctx, args)...)
}

// Info logs user-facing operations.
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// InfoContext logs at INFO level with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.InfoContext(ctx, msg, withRequestID(ctx, args)...)
}

// Warn logs conditions worth surfacing but not fatal.
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// WarnContext logs at WARN level with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	logger.WarnContext(ctx, msg, withRequestID(ctx, args)...)
}

// Error logs failures.
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// ErrorContext logs at ERROR level with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, withRequestID(ctx, args)...)
}

// Fatal logs at ERROR level and exits with status 1.
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}

// FatalContext logs at ERROR level with context and exits with status 1.
func FatalContext(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, withRequestID(ctx, args)...)
	os.Exit(1)
}
