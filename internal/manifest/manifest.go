package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/logdb/blobstore"
)

const (
	ManifestFileName = "MANIFEST"
	CurrentFileName  = "CURRENT"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

// Manifest describes the state of the log at a specific point in time.
type Manifest struct {
	Version   int       `json:"version"`
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	// WriterID identifies the writer that committed this version.
	WriterID      string        `json:"writer_id,omitempty"`
	NextSegmentID uint64        `json:"next_segment_id"`
	FlushedSeq    uint64        `json:"flushed_seq"`
	NextSeq       uint64        `json:"next_seq"`
	Segments      []SegmentInfo `json:"segments"`
}

// New creates a new empty manifest.
func New() *Manifest {
	return &Manifest{
		Version:       CurrentVersion,
		CreatedAt:     time.Now(),
		NextSegmentID: 1,
	}
}

// SegmentInfo describes a single segment.
type SegmentInfo struct {
	ID     uint64 `json:"id"`
	Level  int    `json:"level"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Count  uint32 `json:"count"`
	MinSeq uint64 `json:"min_seq"`
	MaxSeq uint64 `json:"max_seq"`
	// KeyFilter is a serialized roaring bitmap of key hashes.
	KeyFilter []byte `json:"key_filter,omitempty"`
}

// Clone returns a deep copy of m, leaving segment filters shared.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.Segments = append([]SegmentInfo(nil), m.Segments...)
	return &c
}

// Store manages the manifest files and atomic updates.
type Store struct {
	store blobstore.Store
	mu    sync.Mutex
}

// NewStore creates a new manifest store.
func NewStore(store blobstore.Store) *Store {
	return &Store{store: store}
}

// FileName returns the blob name of manifest version id.
func FileName(id uint64) string {
	return fmt.Sprintf("%s-%06d.json", ManifestFileName, id)
}

// Load loads the current manifest.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := blobstore.ReadAll(ctx, s.store, CurrentFileName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.load(ctx, strings.TrimSpace(string(current)))
}

// LoadVersion loads a specific manifest version.
func (s *Store) LoadVersion(ctx context.Context, id uint64) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, FileName(id))
}

func (s *Store) load(ctx context.Context, name string) (*Manifest, error) {
	content, err := blobstore.ReadAll(ctx, s.store, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", name, err)
	}

	m := &Manifest{}
	if err := json.Unmarshal(content, m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", name, err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.Version)
	}

	return m, nil
}

// Save atomically saves a new manifest version. It increments m.ID.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	m.ID++
	m.CreatedAt = time.Now()

	content, err := json.Marshal(m)
	if err != nil {
		return err
	}

	filename := FileName(m.ID)
	if err := s.store.Put(ctx, filename, content); err != nil {
		return err
	}

	if err := s.store.Put(ctx, CurrentFileName, []byte(filename)); err != nil {
		// The orphaned version blob is pruned later.
		return fmt.Errorf("failed to commit manifest %d: %w", m.ID, err)
	}

	return nil
}

// Versions returns the IDs of all stored manifest versions in ascending order.
func (s *Store) Versions(ctx context.Context) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.store.List(ctx, ManifestFileName+"-")
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(names))
	for _, name := range names {
		if id, ok := parseFileName(name); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	return ids, nil
}

// Prune deletes manifest versions older than keepFrom.
func (s *Store) Prune(ctx context.Context, keepFrom uint64) error {
	ids, err := s.Versions(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if id >= keepFrom {
			break
		}
		if err := s.store.Delete(ctx, FileName(id)); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func parseFileName(name string) (uint64, bool) {
	rest, ok := strings.CutPrefix(name, ManifestFileName+"-")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".json")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
