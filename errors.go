package logdb

import (
	"errors"
	"fmt"

	"github.com/hupe1980/logdb/internal/engine"
	"github.com/hupe1980/logdb/internal/handle"
	"github.com/hupe1980/logdb/internal/marshal"
	"github.com/hupe1980/logdb/internal/settings"
	"github.com/hupe1980/logdb/model"
)

var (
	// ErrInvalidArgument is returned for bad or empty input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConfig is returned for an unrecognized variant or a malformed field.
	ErrConfig = errors.New("config error")

	// ErrEngine wraps a failure reported by the storage engine.
	ErrEngine = errors.New("engine error")

	// ErrNative is returned when a resource such as a worker pool or a
	// storage client cannot be constructed.
	ErrNative = errors.New("native error")
)

var (
	// ErrEmptyBatch is returned when appending no records.
	ErrEmptyBatch = fmt.Errorf("%w: empty batch", ErrInvalidArgument)

	// ErrMarshal is returned when host records cannot be extracted.
	ErrMarshal = fmt.Errorf("%w: marshal error", ErrInvalidArgument)

	// ErrInvalidHandle is returned for unknown, stale or closed handles.
	ErrInvalidHandle = fmt.Errorf("%w: invalid handle", ErrInvalidArgument)

	// ErrReadOnly is returned when appending through a read-only resource.
	ErrReadOnly = fmt.Errorf("%w: read-only resource", ErrInvalidArgument)
)

// translateError classifies err into one of the boundary categories.
// Errors that are already classified are returned unchanged. Anything not
// recognized is reported as an engine error, its text preserved.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case classified(err):
		return err

	case errors.Is(err, marshal.ErrEmptyBatch), errors.Is(err, engine.ErrEmptyBatch):
		return fmt.Errorf("%w: %w", ErrEmptyBatch, err)

	case errors.Is(err, handle.ErrInvalidHandle):
		return fmt.Errorf("%w: %w", ErrInvalidHandle, err)

	case errors.Is(err, model.ErrInvalidConfig), errors.Is(err, settings.ErrInvalidSettings),
		errors.Is(err, marshal.ErrUnknownVariant), errors.Is(err, marshal.ErrMissingField),
		errors.Is(err, marshal.ErrFieldType), errors.Is(err, marshal.ErrInvalidValue):
		return fmt.Errorf("%w: %w", ErrConfig, err)

	default:
		return fmt.Errorf("%w: %w", ErrEngine, err)
	}
}

// marshalError classifies a record extraction failure.
func marshalError(err error) error {
	if errors.Is(err, marshal.ErrEmptyBatch) {
		return fmt.Errorf("%w: %w", ErrEmptyBatch, err)
	}
	return fmt.Errorf("%w: %w", ErrMarshal, err)
}

func nativeError(err error) error {
	if err == nil || classified(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrNative, err)
}

func classified(err error) bool {
	return errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrConfig) ||
		errors.Is(err, ErrEngine) || errors.Is(err, ErrNative)
}
