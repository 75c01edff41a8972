package manifest

import (
	"errors"

	"github.com/hupe1980/logdb/blobstore"
)

var (
	// ErrIncompatibleVersion is returned when the manifest version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible manifest version")

	// ErrNotFound is returned when the manifest file does not exist.
	ErrNotFound = errors.New("manifest not found")

	// ErrConcurrentModification is returned when another writer committed CURRENT first.
	ErrConcurrentModification = blobstore.ErrConcurrentModification
)
