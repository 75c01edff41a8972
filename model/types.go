package model

import "fmt"

// Record is a single value submitted to Append.
// TimestampMs is captured by the caller before submission.
type Record struct {
	Key         []byte
	Payload     []byte
	TimestampMs int64
}

// NewRecord creates a record.
func NewRecord(key, payload []byte, timestampMs int64) Record {
	return Record{Key: key, Payload: payload, TimestampMs: timestampMs}
}

// LogEntry is a decoded entry read back from the log.
type LogEntry struct {
	Sequence    uint64
	TimestampMs int64
	Key         []byte
	Payload     []byte
}

// String returns a string representation of the LogEntry.
func (e LogEntry) String() string {
	return fmt.Sprintf("Entry(%q@%d ts=%d len=%d)", e.Key, e.Sequence, e.TimestampMs, len(e.Payload))
}

// AppendResult is returned by a successful append.
type AppendResult struct {
	// StartSequence is the engine-assigned sequence of the first record.
	// Records in the batch occupy StartSequence..StartSequence+n-1.
	StartSequence uint64
	// TimestampMs is the timestamp of the first record in the batch.
	TimestampMs int64
}
