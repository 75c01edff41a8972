package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/logdb"
	"github.com/hupe1980/logdb/internal/marshal"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	Start uint64
	Max   int
	Wait  time.Duration
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan <key>",
		Short: "Print the entries of a key",
		Long: `Print up to --max entries of key with a sequence of at least --start.

Output columns (text): sequence, timestamp_ms, key, payload.

Example:
  logdb scan orders --start 10 --wait 5s`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Start, "start", 0, "first sequence to return")
	cmd.Flags().IntVar(&opts.Max, "max", 100, "maximum number of entries")
	cmd.Flags().DurationVar(&opts.Wait, "wait", 0, "wait up to this long for a first entry")

	return cmd
}

func runScan(opts *ScanOptions, key string, cmd *cobra.Command) error {
	doc, err := loadDocument(opts.RootOptions)
	if err != nil {
		return err
	}

	cfg, err := marshal.ResolveReaderConfig(doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	r, err := logdb.OpenReader(cfg, opts.logdbOptions()...)
	if err != nil {
		return err
	}
	defer r.Close()

	entries, err := r.ScanWait([]byte(key), opts.Start, opts.Max, opts.Wait)
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Entries(entries)
}
