package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/logdb/blobstore"
	"github.com/hupe1980/logdb/internal/manifest"
	"github.com/hupe1980/logdb/internal/segment"
)

// SegmentPrefix is the blob name prefix of all segments.
const SegmentPrefix = "segments/"

func segmentName(id uint64) string {
	return fmt.Sprintf("%s%06d.seg", SegmentPrefix, id)
}

// segmentSet holds the decoded segments of a manifest.
type segmentSet struct {
	store blobstore.Store

	mu     sync.RWMutex
	loaded map[uint64]*segment.Segment
	group  singleflight.Group
}

func newSegmentSet(store blobstore.Store) *segmentSet {
	return &segmentSet{
		store:  store,
		loaded: make(map[uint64]*segment.Segment),
	}
}

func (s *segmentSet) get(ctx context.Context, info manifest.SegmentInfo) (*segment.Segment, error) {
	s.mu.RLock()
	seg, ok := s.loaded[info.ID]
	s.mu.RUnlock()
	if ok {
		return seg, nil
	}

	v, err, _ := s.group.Do(strconv.FormatUint(info.ID, 10), func() (any, error) {
		blob, err := s.store.Open(ctx, info.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open segment %s: %w", info.Path, err)
		}
		defer blob.Close()

		seg, err := segment.Open(blob.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: segment %s: %w", ErrCorrupt, info.Path, err)
		}

		s.mu.Lock()
		s.loaded[info.ID] = seg
		s.mu.Unlock()
		return seg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*segment.Segment), nil
}

func (s *segmentSet) has(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loaded[id]
	return ok
}

// retain drops decoded segments that are not in live.
func (s *segmentSet) retain(live []manifest.SegmentInfo) {
	keep := make(map[uint64]struct{}, len(live))
	for _, info := range live {
		keep[info.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.loaded {
		if _, ok := keep[id]; !ok {
			delete(s.loaded, id)
		}
	}
}

// scan collects the entries of key with Seq >= start from the given segments.
func (s *segmentSet) scan(ctx context.Context, infos []manifest.SegmentInfo, key []byte, start uint64) ([]Entry, error) {
	var out []Entry
	for _, info := range infos {
		if info.MaxSeq < start || !segment.MayContain(info.KeyFilter, key) {
			continue
		}
		seg, err := s.get(ctx, info)
		if err != nil {
			return nil, err
		}
		out = append(out, seg.Scan(key, start)...)
	}
	return out, nil
}
