package logdb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with logdb-specific context.
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

// WithKey adds a key field to the logger.
func (l *Logger) WithKey(key []byte) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", string(key)),
	}
}

// WithSequence adds a sequence field to the logger. For scans it is the
// start sequence, for appends the first assigned sequence.
func (l *Logger) WithSequence(seq uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("sequence", seq),
	}
}

// LogOpen logs the opening of a log or reader.
func (l *Logger) LogOpen(ctx context.Context, kind, storage string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"kind", kind,
			"storage", storage,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "opened",
			"kind", kind,
			"storage", storage,
		)
	}
}

// LogAppend logs an append operation.
func (l *Logger) LogAppend(ctx context.Context, count int, start uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "append failed",
			"count", count,
			"error", err,
		)
	} else {
		l.WithSequence(start).DebugContext(ctx, "append completed",
			"count", count,
		)
	}
}

// LogScan logs a scan operation.
func (l *Logger) LogScan(ctx context.Context, key []byte, start uint64, found int, err error) {
	kl := l.WithKey(key).WithSequence(start)
	if err != nil {
		kl.ErrorContext(ctx, "scan failed",
			"error", err,
		)
	} else {
		kl.DebugContext(ctx, "scan completed",
			"results", found,
		)
	}
}

// LogClose logs a close operation. Close failures never prevent the
// release of the worker pools, so they are only reported.
func (l *Logger) LogClose(ctx context.Context, kind string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"kind", kind,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "closed",
			"kind", kind,
		)
	}
}
