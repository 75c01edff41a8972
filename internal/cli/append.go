package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/logdb"
)

// AppendOptions holds flags for the append command.
type AppendOptions struct {
	*RootOptions
	TimestampMs int64
}

// NewAppendCommand creates the append command.
func NewAppendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AppendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "append <key> <payload>...",
		Short: "Append payloads under a key as one batch",
		Long: `Append one or more payloads under key as a single atomic batch.

Example:
  logdb append orders created paid shipped`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.TimestampMs, "timestamp-ms", 0, "record timestamp in unix milliseconds (default now)")

	return cmd
}

type appendResult struct {
	Count         int    `json:"count"`
	StartSequence uint64 `json:"start_sequence"`
	TimestampMs   int64  `json:"timestamp_ms"`
}

func runAppend(opts *AppendOptions, key string, payloads []string, cmd *cobra.Command) error {
	doc, err := loadDocument(opts.RootOptions)
	if err != nil {
		return err
	}

	ts := opts.TimestampMs
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	records := make([]any, len(payloads))
	for i, p := range payloads {
		records[i] = map[string]any{"key": key, "payload": p, "timestamp_ms": ts}
	}

	h, err := logdb.Create(doc, opts.logdbOptions()...)
	if err != nil {
		return err
	}

	res, appendErr := logdb.Append(h, records)
	closeErr := logdb.Close(h)
	if appendErr != nil {
		return appendErr
	}
	if closeErr != nil {
		return closeErr
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	result := appendResult{Count: len(records), StartSequence: res.StartSequence, TimestampMs: res.TimestampMs}
	return out.Value(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "appended %d record(s) at sequence %d\n", result.Count, result.StartSequence)
		return err
	})
}
