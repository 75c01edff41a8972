package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/logdb"
	"github.com/hupe1980/logdb/internal/marshal"
	"github.com/hupe1980/logdb/model"
)

// BenchOptions holds flags for the bench command.
type BenchOptions struct {
	*RootOptions
	Records     int
	Batch       int
	PayloadSize int
	Rate        float64
	Key         string
	Idle        time.Duration
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure end-to-end append-to-read latency",
		Long: `Run a writer and an independent reader against the configured storage.

Latency is measured from the timestamp each record carries to the moment
the reader returns it. In-memory storage cannot be shared between a
writer and a reader, so the writer's own view is read instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Records, "records", 1000, "number of records to write")
	cmd.Flags().IntVar(&opts.Batch, "batch", 1, "records per append")
	cmd.Flags().IntVar(&opts.PayloadSize, "payload-size", 128, "payload size in bytes")
	cmd.Flags().Float64Var(&opts.Rate, "rate", 0, "appends per second (0 = unthrottled)")
	cmd.Flags().StringVar(&opts.Key, "key", "bench", "key prefix; a unique suffix is added per run")
	cmd.Flags().DurationVar(&opts.Idle, "idle-timeout", 10*time.Second, "give up when the reader sees nothing new for this long")

	return cmd
}

type scanner interface {
	ScanWait(key []byte, start uint64, maxEntries int, timeout time.Duration) ([]model.LogEntry, error)
}

// BenchResult summarizes a bench run.
type BenchResult struct {
	Records    int           `json:"records"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Throughput float64       `json:"records_per_sec"`
	P50        time.Duration `json:"p50_ns"`
	P99        time.Duration `json:"p99_ns"`
	Max        time.Duration `json:"max_ns"`
}

func runBench(ctx context.Context, opts *BenchOptions, cmd *cobra.Command) error {
	if opts.Records <= 0 || opts.Batch <= 0 || opts.PayloadSize < 0 {
		return NewExitError(ExitCommandError, "records and batch must be positive, payload-size not negative")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	doc, err := loadDocument(opts.RootOptions)
	if err != nil {
		return err
	}
	cfg, err := marshal.ResolveConfig(doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	readerCfg, err := marshal.ResolveReaderConfig(doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	db, err := logdb.Open(cfg, opts.logdbOptions()...)
	if err != nil {
		return err
	}
	defer db.Close()

	var reader scanner = db
	if shareable(cfg.Storage) {
		r, err := logdb.OpenReader(readerCfg, opts.logdbOptions()...)
		if err != nil {
			return err
		}
		defer r.Close()
		reader = r
	}

	res, err := bench(ctx, db, reader, opts)
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Value(res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "records=%d elapsed=%s throughput=%.0f/s p50=%s p99=%s max=%s\n",
			res.Records, res.Elapsed, res.Throughput, res.P50, res.P99, res.Max)
		return err
	})
}

func bench(ctx context.Context, db *logdb.DB, reader scanner, opts *BenchOptions) (BenchResult, error) {
	key := []byte(fmt.Sprintf("%s-%d", opts.Key, time.Now().UnixNano()))
	payload := make([]byte, opts.PayloadSize)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	latencies := make([]time.Duration, 0, opts.Records)
	began := time.Now()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for written := 0; written < opts.Records; {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			n := min(opts.Batch, opts.Records-written)
			now := time.Now().UnixMilli()
			batch := make([]model.Record, n)
			for i := range batch {
				batch[i] = model.NewRecord(key, payload, now)
			}
			if _, err := db.Append(batch); err != nil {
				return err
			}
			written += n
		}
		return nil
	})

	g.Go(func() error {
		var next uint64
		lastProgress := time.Now()
		for len(latencies) < opts.Records {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries, err := reader.ScanWait(key, next, opts.Records, 100*time.Millisecond)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				if time.Since(lastProgress) > opts.Idle {
					return fmt.Errorf("reader saw %d of %d records before going idle", len(latencies), opts.Records)
				}
				continue
			}
			seen := time.Now().UnixMilli()
			for _, e := range entries {
				latencies = append(latencies, time.Duration(seen-e.TimestampMs)*time.Millisecond)
			}
			next = entries[len(entries)-1].Sequence + 1
			lastProgress = time.Now()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return BenchResult{}, err
	}

	elapsed := time.Since(began)
	slices.Sort(latencies)

	return BenchResult{
		Records:    len(latencies),
		Elapsed:    elapsed,
		Throughput: float64(len(latencies)) / elapsed.Seconds(),
		P50:        percentile(latencies, 0.50),
		P99:        percentile(latencies, 0.99),
		Max:        latencies[len(latencies)-1],
	}, nil
}

// percentile returns the q-th quantile of sorted, which must not be empty.
func percentile(sorted []time.Duration, q float64) time.Duration {
	idx := int(q * float64(len(sorted)-1))
	return sorted[idx]
}

// shareable reports whether a second process-local connection sees the
// same data as the writer.
func shareable(storage model.StorageConfig) bool {
	switch sc := storage.(type) {
	case model.SlateDb:
		_, inMemory := sc.ObjectStore.(model.InMemoryObjectStore)
		return !inMemory
	default:
		return false
	}
}
