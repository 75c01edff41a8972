package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig is returned when a configuration value is malformed.
var ErrInvalidConfig = errors.New("invalid config")

// StorageConfig selects the storage backend of a log.
//
// Variants: InMemory, SlateDb.
type StorageConfig interface {
	isStorageConfig()
	Validate() error
}

// InMemory keeps the whole log in process memory.
type InMemory struct{}

func (InMemory) isStorageConfig() {}

// Validate implements StorageConfig.
func (InMemory) Validate() error { return nil }

// SlateDb persists the log into an object store under Path.
type SlateDb struct {
	// Path is the prefix of every object written by the log.
	Path string
	// ObjectStore is the backing object store.
	ObjectStore ObjectStoreConfig
	// SettingsPath optionally points to an engine settings file.
	SettingsPath *string
}

func (SlateDb) isStorageConfig() {}

// Validate implements StorageConfig.
func (s SlateDb) Validate() error {
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("%w: slatedb path must not be blank", ErrInvalidConfig)
	}
	if s.ObjectStore == nil {
		return fmt.Errorf("%w: slatedb object store must be set", ErrInvalidConfig)
	}
	if s.SettingsPath != nil && strings.TrimSpace(*s.SettingsPath) == "" {
		return fmt.Errorf("%w: settings path must not be blank when set", ErrInvalidConfig)
	}
	return s.ObjectStore.Validate()
}

// ObjectStoreConfig selects the object store behind a SlateDb backend.
//
// Variants: InMemoryObjectStore, LocalObjectStore, AwsObjectStore.
type ObjectStoreConfig interface {
	isObjectStoreConfig()
	Validate() error
}

// InMemoryObjectStore is a process-local object store.
type InMemoryObjectStore struct{}

func (InMemoryObjectStore) isObjectStoreConfig() {}

// Validate implements ObjectStoreConfig.
func (InMemoryObjectStore) Validate() error { return nil }

// LocalObjectStore stores objects as files below Path.
type LocalObjectStore struct {
	Path string
}

func (LocalObjectStore) isObjectStoreConfig() {}

// Validate implements ObjectStoreConfig.
func (l LocalObjectStore) Validate() error {
	if strings.TrimSpace(l.Path) == "" {
		return fmt.Errorf("%w: local object store path must not be blank", ErrInvalidConfig)
	}
	return nil
}

// AwsObjectStore stores objects in an S3 bucket.
type AwsObjectStore struct {
	Region string
	Bucket string
}

func (AwsObjectStore) isObjectStoreConfig() {}

// Validate implements ObjectStoreConfig.
func (a AwsObjectStore) Validate() error {
	if strings.TrimSpace(a.Region) == "" {
		return fmt.Errorf("%w: aws region must not be blank", ErrInvalidConfig)
	}
	if strings.TrimSpace(a.Bucket) == "" {
		return fmt.Errorf("%w: aws bucket must not be blank", ErrInvalidConfig)
	}
	return nil
}

// SegmentConfig controls how the engine seals its memtable.
type SegmentConfig struct {
	// SealInterval forces a flush at this interval. Zero disables the timer.
	SealInterval time.Duration
}

// Validate checks the segmentation settings.
func (s SegmentConfig) Validate() error {
	if s.SealInterval < 0 {
		return fmt.Errorf("%w: seal interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// Config configures a read-write log.
type Config struct {
	Storage      StorageConfig
	Segmentation SegmentConfig
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if c.Storage == nil {
		return fmt.Errorf("%w: storage must be set", ErrInvalidConfig)
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return c.Segmentation.Validate()
}

// DefaultRefreshInterval is used by readers that do not set RefreshInterval.
const DefaultRefreshInterval = time.Second

// ReaderConfig configures a read-only view of a log.
type ReaderConfig struct {
	Storage StorageConfig
	// RefreshInterval bounds how stale the reader's view may get.
	// Zero selects DefaultRefreshInterval.
	RefreshInterval time.Duration
}

// Validate checks the reader configuration.
func (c ReaderConfig) Validate() error {
	if c.Storage == nil {
		return fmt.Errorf("%w: storage must be set", ErrInvalidConfig)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("%w: refresh interval must be positive", ErrInvalidConfig)
	}
	return c.Storage.Validate()
}

// EffectiveRefreshInterval returns RefreshInterval or its default.
func (c ReaderConfig) EffectiveRefreshInterval() time.Duration {
	if c.RefreshInterval == 0 {
		return DefaultRefreshInterval
	}
	return c.RefreshInterval
}
