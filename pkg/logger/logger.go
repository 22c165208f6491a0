// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it returns a logger with the
// request ID already attached, so every log line from a handler or service is
// automatically correlated:
//
//	log := logger.WithCtx(ctx)
//	log.Info("folder deleted", "folder_id", id, "freed_space", freed)
//	// → time=... level=INFO msg="folder deleted" request_id=a1b2c3d4 folder_id=7 freed_space=1500
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/betterdrive/betterdrive/config"
)

var L *slog.Logger

func init() {
	var opts slog.HandlerOptions
	var handler slog.Handler

	switch config.AppEnv() {
	case "production", "prod":
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(os.Stdout, &opts) // structured JSON for log aggregators
	default:
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, &opts) // human-readable for dev
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// EnableAudit fans the base logger out to an additional audit handler
// (typically a MongoHandler). Called once during server boot, before any
// request is served.
func EnableAudit(audit slog.Handler) {
	L = slog.New(NewMultiHandler(L.Handler(), audit))
	slog.SetDefault(L)
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the *slog.Logger stored in ctx by the Logger middleware,
// pre-tagged with the request_id. Falls back to the base logger when the
// context carries none (CLI commands, background jobs).
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware — not usually needed in application code.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
