// Package settings loads engine tuning settings from a file.
//
// The format is chosen by extension: .yaml, .yml and .json are decoded with
// yaml.v3 (JSON is valid YAML), .toml with go-toml. Unknown keys are rejected.
// Fields absent from the file keep their defaults.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/logdb/internal/segment"
)

// ErrInvalidSettings is returned for malformed or inconsistent settings.
var ErrInvalidSettings = errors.New("invalid settings")

const (
	// MiB is one mebibyte.
	MiB = 1 << 20

	DefaultFlushThresholdBytes = 4 * MiB
	DefaultMaxMemtableBytes    = 64 * MiB
	DefaultCompactionThreshold = 4
	DefaultSegmentCacheBytes   = 64 * MiB
	DefaultMaxBackgroundJobs   = 1
)

// Settings tunes the storage engine.
type Settings struct {
	// FlushThresholdBytes is the memtable size that triggers a flush.
	FlushThresholdBytes int64 `yaml:"flush_threshold_bytes" toml:"flush_threshold_bytes"`
	// MaxMemtableBytes bounds unflushed data. Appends stall above it.
	MaxMemtableBytes int64 `yaml:"max_memtable_bytes" toml:"max_memtable_bytes"`
	// CompactionThreshold is the number of segments that triggers a compaction.
	CompactionThreshold int    `yaml:"compaction_threshold" toml:"compaction_threshold"`
	Compression         string `yaml:"compression" toml:"compression"`
	SegmentCacheBytes   int64  `yaml:"segment_cache_bytes" toml:"segment_cache_bytes"`
	MaxBackgroundJobs   int    `yaml:"max_background_jobs" toml:"max_background_jobs"`
	// CompactionIOBytesPerSec throttles compaction uploads. 0 means unlimited.
	CompactionIOBytesPerSec int64 `yaml:"compaction_io_bytes_per_sec" toml:"compaction_io_bytes_per_sec"`
	// S3Endpoint selects an S3-compatible endpoint for aws object stores.
	S3Endpoint string `yaml:"s3_endpoint" toml:"s3_endpoint"`
	// ManifestCommitTable commits CURRENT through a DynamoDB table.
	ManifestCommitTable string `yaml:"manifest_commit_table" toml:"manifest_commit_table"`
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		FlushThresholdBytes: DefaultFlushThresholdBytes,
		MaxMemtableBytes:    DefaultMaxMemtableBytes,
		CompactionThreshold: DefaultCompactionThreshold,
		Compression:         segment.CompressionZstd.String(),
		SegmentCacheBytes:   DefaultSegmentCacheBytes,
		MaxBackgroundJobs:   DefaultMaxBackgroundJobs,
	}
}

// Load reads settings from path on top of the defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	s := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return Settings{}, fmt.Errorf("%w: %s: %w", ErrInvalidSettings, path, err)
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&s); err != nil {
			return Settings{}, fmt.Errorf("%w: %s: %w", ErrInvalidSettings, path, err)
		}
	default:
		return Settings{}, fmt.Errorf("%w: unsupported settings format %q", ErrInvalidSettings, ext)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// Validate checks the settings for consistency.
func (s Settings) Validate() error {
	switch {
	case s.FlushThresholdBytes <= 0:
		return fmt.Errorf("%w: flush_threshold_bytes must be positive", ErrInvalidSettings)
	case s.MaxMemtableBytes < s.FlushThresholdBytes:
		return fmt.Errorf("%w: max_memtable_bytes must be at least flush_threshold_bytes", ErrInvalidSettings)
	case s.CompactionThreshold < 2:
		return fmt.Errorf("%w: compaction_threshold must be at least 2", ErrInvalidSettings)
	case s.SegmentCacheBytes < 0:
		return fmt.Errorf("%w: segment_cache_bytes must not be negative", ErrInvalidSettings)
	case s.MaxBackgroundJobs <= 0:
		return fmt.Errorf("%w: max_background_jobs must be positive", ErrInvalidSettings)
	case s.CompactionIOBytesPerSec < 0:
		return fmt.Errorf("%w: compaction_io_bytes_per_sec must not be negative", ErrInvalidSettings)
	}

	if _, err := segment.ParseCompression(s.Compression); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	return nil
}

// CompressionCodec returns the parsed compression setting.
func (s Settings) CompressionCodec() segment.Compression {
	c, err := segment.ParseCompression(s.Compression)
	if err != nil {
		return segment.CompressionZstd
	}
	return c
}
