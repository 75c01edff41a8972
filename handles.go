package logdb

import (
	"fmt"

	"github.com/hupe1980/logdb/internal/handle"
	"github.com/hupe1980/logdb/internal/marshal"
	"github.com/hupe1980/logdb/model"
)

// Handle is an opaque reference to a DB or Reader opened with Create or
// CreateReader. The zero Handle is never valid.
type Handle = handle.Handle

type resource interface {
	Scan(key []byte, start uint64, maxEntries int) ([]model.LogEntry, error)
	Close() error
}

// RecordLike is implemented by host objects that carry a record. Slices of
// RecordLike values are accepted by Append.
type RecordLike = marshal.RecordLike

var (
	_ resource = (*DB)(nil)
	_ resource = (*Reader)(nil)
)

var handles = handle.NewSlab[resource]()

// Create opens a read-write log from config and returns its handle.
//
// config is a model.Config, a *model.Config or a configuration document: a
// map with a "storage" entry and an optional "segmentation" map holding
// "seal_interval_ms". A storage map has "type" "in_memory", or "slatedb"
// with "path", "object_store" and an optional "settings_path"; an
// object_store map has "type" "in_memory", "local" with "path", or "aws"
// with "region" and "bucket". No handle is produced on failure.
func Create(config any, optFns ...Option) (Handle, error) {
	cfg, err := marshal.ResolveConfig(config)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	db, err := Open(cfg, optFns...)
	if err != nil {
		return 0, err
	}
	return handles.Insert(db), nil
}

// CreateReader opens a read-only view from config and returns its handle.
//
// config is a model.ReaderConfig, a *model.ReaderConfig or a document shaped
// like the one Create accepts, with an optional "refresh_interval_ms" in
// place of "segmentation".
func CreateReader(config any, optFns ...Option) (Handle, error) {
	cfg, err := marshal.ResolveReaderConfig(config)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	r, err := OpenReader(cfg, optFns...)
	if err != nil {
		return 0, err
	}
	return handles.Insert(r), nil
}

// Append appends records through the log behind h.
//
// records is a []model.Record, []*model.Record, []RecordLike,
// []map[string]any or a []any mixing those element kinds. A map element
// carries "key", "payload" (or its alias "value") and an integral
// "timestamp_ms". Readers reject appends with ErrReadOnly.
func Append(h Handle, records any) (model.AppendResult, error) {
	res, err := lookup(h)
	if err != nil {
		return model.AppendResult{}, err
	}

	db, ok := res.(*DB)
	if !ok {
		return model.AppendResult{}, ErrReadOnly
	}

	batch, _, err := marshal.ExtractRecords(records)
	if err != nil {
		return model.AppendResult{}, marshalError(err)
	}
	return db.Append(batch)
}

// Scan reads from the log or reader behind h.
func Scan(h Handle, key []byte, start uint64, maxEntries int) ([]model.LogEntry, error) {
	res, err := lookup(h)
	if err != nil {
		return nil, err
	}
	return res.Scan(key, start, maxEntries)
}

// Close releases the resource behind h. The handle is invalid afterwards,
// even when closing reports an error.
func Close(h Handle) error {
	res, err := handles.Remove(h)
	if err != nil {
		return translateError(err)
	}
	return res.Close()
}

func lookup(h Handle) (resource, error) {
	res, err := handles.Get(h)
	if err != nil {
		return nil, translateError(err)
	}
	return res, nil
}
