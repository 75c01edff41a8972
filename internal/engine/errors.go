package engine

import "errors"

var (
	// ErrClosed is returned when an operation is attempted on a closed log.
	ErrClosed = errors.New("engine closed")

	// ErrCorrupt is returned when data corruption is detected.
	ErrCorrupt = errors.New("data corruption detected")

	// ErrEmptyBatch is returned when appending a batch without entries.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrBatchTooLarge is returned when a batch can never fit into the memtable budget.
	ErrBatchTooLarge = errors.New("batch exceeds memtable budget")

	// ErrNoExecutor is returned when a writable log is opened without a background executor.
	ErrNoExecutor = errors.New("background executor required")
)
