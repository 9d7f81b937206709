package ivfgo

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with ivfgo-specific helpers.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable
	}))
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{Logger: l.Logger.With("dimension", dim)}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, id uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed", "error", err)
		return
	}
	l.DebugContext(ctx, "insert completed", "id", id)
}

// LogBatchInsert logs a batch insert operation.
func (l *Logger) LogBatchInsert(ctx context.Context, count int, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch insert failed", "count", count, "error", err)
		return
	}
	l.DebugContext(ctx, "batch insert completed", "count", count)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "k", k, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "k", k, "results", resultsFound)
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(ctx context.Context, vectors int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed", "vectors", vectors, "error", err)
		return
	}
	l.InfoContext(ctx, "build completed", "vectors", vectors, "duration", d)
}

// LogCheckpoint logs a snapshot checkpoint.
func (l *Logger) LogCheckpoint(ctx context.Context, name string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint failed", "snapshot", name, "error", err)
		return
	}
	l.InfoContext(ctx, "checkpoint saved", "snapshot", name, "bytes", bytes)
}

// LogRecovery logs snapshot load and WAL replay at open.
func (l *Logger) LogRecovery(ctx context.Context, snapshotVectors, entriesReplayed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recovery failed",
			"snapshot_vectors", snapshotVectors,
			"entries_replayed", entriesReplayed,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "recovery completed",
		"snapshot_vectors", snapshotVectors,
		"entries_replayed", entriesReplayed,
	)
}
