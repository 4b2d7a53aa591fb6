package txcoll

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with txcoll-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithVersion adds a version field to the logger.
func (l *Logger) WithVersion(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("version", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogUpdate logs a mutation.
func (l *Logger) LogUpdate(ctx context.Context, level IsolationLevel, removed, added int, changed bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"isolation", level.String(),
			"removals", removed,
			"additions", added,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "update completed",
		"isolation", level.String(),
		"removals", removed,
		"additions", added,
		"changed", changed,
	)
}

// LogRetrieve logs the opening of a result set.
func (l *Logger) LogRetrieve(ctx context.Context, level IsolationLevel, err error) {
	if err != nil {
		l.ErrorContext(ctx, "retrieve failed",
			"isolation", level.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "retrieve opened",
		"isolation", level.String(),
	)
}

// LogRetainAll logs a retain-all (or clear) operation.
func (l *Logger) LogRetainAll(ctx context.Context, kept int, changed bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "retain all failed",
			"kept", kept,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "retain all completed",
		"kept", kept,
		"changed", changed,
	)
}
