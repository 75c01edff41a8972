package logdb

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/logdb/internal/settings"
)

// Settings tunes the storage engine. See DefaultSettings.
type Settings = settings.Settings

// DefaultSettings returns the engine defaults used when neither WithSettings
// nor a settings file is given.
func DefaultSettings() Settings {
	return settings.Default()
}

type options struct {
	logger            *Logger
	metricsCollector  MetricsCollector
	foregroundWorkers int
	backgroundWorkers int
	settings          *Settings
}

// Option configures Open and OpenReader behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := logdb.NewJSONLogger(slog.LevelInfo)
//	db, _ := logdb.Open(cfg, logdb.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &logdb.BasicMetricsCollector{}
//	db, _ := logdb.Open(cfg, logdb.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Appends: %d, Avg latency: %dns\n", stats.AppendCount, stats.AppendAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithForegroundWorkers sizes the pool that drives caller operations.
// Defaults to GOMAXPROCS.
func WithForegroundWorkers(n int) Option {
	return func(o *options) {
		o.foregroundWorkers = n
	}
}

// WithBackgroundWorkers sizes the pool that runs flush and compaction.
// Defaults to GOMAXPROCS. Readers have no background pool and ignore it.
func WithBackgroundWorkers(n int) Option {
	return func(o *options) {
		o.backgroundWorkers = n
	}
}

// WithSettings overrides the engine settings, including any settings file
// named by the storage configuration.
func WithSettings(s Settings) Option {
	return func(o *options) {
		o.settings = &s
	}
}

func applyOptions(optFns []Option) options {
	procs := runtime.GOMAXPROCS(0)
	o := options{
		metricsCollector:  NoopMetricsCollector{},
		logger:            NewTextLogger(slog.LevelInfo),
		foregroundWorkers: procs,
		backgroundWorkers: procs,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
