// Package cli implements the logdb command line.
package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/hupe1980/logdb"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config   string
	DataDir  string
	LogLevel string
	Format   string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the logdb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "logdb",
		Short: "logdb - keyed, sequence-numbered append-only log",
		Long: `Append to and read from a logdb log.

Storage is described by a YAML config file (--config). Without one, a
local object store below --data-dir is used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, err := opts.level(); err != nil {
				return WrapExitError(ExitCommandError, "invalid log level", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "./logdb-data", "local data directory used without --config")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewAppendCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewBenchCommand(opts))

	return cmd
}

func (o *RootOptions) level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(o.LogLevel))
	return level, err
}

// logdbOptions returns the options shared by every command.
func (o *RootOptions) logdbOptions() []logdb.Option {
	level, err := o.level()
	if err != nil {
		level = slog.LevelWarn
	}
	return []logdb.Option{logdb.WithLogLevel(level)}
}
