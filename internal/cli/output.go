package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/logdb"
	"github.com/hupe1980/logdb/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Engine or runtime failure
	ExitCommandError = 2 // Invalid arguments or configuration
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Invalid arguments and configuration map to ExitCommandError, anything
// else that is not an ExitError to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, logdb.ErrInvalidArgument), errors.Is(err, logdb.ErrConfig):
		return ExitCommandError
	default:
		return ExitFailure
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

type entryJSON struct {
	Sequence    uint64 `json:"sequence"`
	TimestampMs int64  `json:"timestamp_ms"`
	Key         string `json:"key"`
	Payload     string `json:"payload"`
}

// Entries prints scanned entries, one per line.
func (f *OutputFormatter) Entries(entries []model.LogEntry) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		for _, e := range entries {
			if err := enc.Encode(entryJSON{
				Sequence:    e.Sequence,
				TimestampMs: e.TimestampMs,
				Key:         string(e.Key),
				Payload:     string(e.Payload),
			}); err != nil {
				return err
			}
		}
		return nil
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(f.Writer, "%d\t%d\t%s\t%s\n", e.Sequence, e.TimestampMs, e.Key, e.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Value prints v as JSON, or the text rendering produced by text.
func (f *OutputFormatter) Value(v any, text func(io.Writer) error) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(v)
	}
	return text(f.Writer)
}
