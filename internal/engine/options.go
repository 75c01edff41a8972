package engine

import (
	"log/slog"
	"time"

	"github.com/hupe1980/logdb/blobstore"
	"github.com/hupe1980/logdb/internal/resource"
	"github.com/hupe1980/logdb/internal/scheduler"
	"github.com/hupe1980/logdb/internal/settings"
)

// Options configures a writable Log.
type Options struct {
	// Store holds WAL blobs, segments and manifests.
	Store blobstore.Store

	Settings settings.Settings

	// Executor runs flush and compaction. Required.
	Executor scheduler.Executor

	Logger *slog.Logger

	// SealInterval forces a flush of a non-empty memtable periodically. 0 disables it.
	SealInterval time.Duration

	// Resources overrides the controller derived from Settings.
	Resources *resource.Controller

	// Policy overrides the tiered compaction policy derived from Settings.
	Policy CompactionPolicy
}

// ReaderOptions configures a read-only Reader.
type ReaderOptions struct {
	Store blobstore.Store

	Logger *slog.Logger

	// RefreshInterval is the minimum time between two refreshes of the view.
	RefreshInterval time.Duration

	// Parallelism bounds concurrent blob reads during a refresh. Default 8.
	Parallelism int
}

const (
	defaultParallelism = 8

	// stallPollInterval bounds how long a stalled append sleeps when no
	// flush is in flight to wake it.
	stallPollInterval = 10 * time.Millisecond
)

func (o *Options) setDefaults() {
	if o.Settings == (settings.Settings{}) {
		o.Settings = settings.Default()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Resources == nil {
		o.Resources = resource.NewController(resource.Config{
			MemoryLimitBytes:   o.Settings.MaxMemtableBytes,
			MaxBackgroundJobs:  int64(o.Settings.MaxBackgroundJobs),
			IOLimitBytesPerSec: o.Settings.CompactionIOBytesPerSec,
		})
	}
	if o.Policy == nil {
		o.Policy = &TieredCompactionPolicy{Threshold: o.Settings.CompactionThreshold}
	}
}

func (o *ReaderOptions) setDefaults() {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = time.Second
	}
	if o.Parallelism <= 0 {
		o.Parallelism = defaultParallelism
	}
}
