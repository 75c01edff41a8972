package marshal

import "errors"

var (
	// ErrUnknownVariant is returned when a value matches no variant of a closed union.
	ErrUnknownVariant = errors.New("unknown variant")

	// ErrMissingField is returned when a required document field is absent.
	ErrMissingField = errors.New("missing field")

	// ErrFieldType is returned when a field holds a value of the wrong type.
	ErrFieldType = errors.New("field has wrong type")

	// ErrInvalidValue is returned when a field has the right type but an invalid value.
	ErrInvalidValue = errors.New("invalid value")

	// ErrEmptyBatch is returned when a record sequence is empty.
	ErrEmptyBatch = errors.New("empty batch")
)
