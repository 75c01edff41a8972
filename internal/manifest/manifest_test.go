package manifest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hupe1980/logdb/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore())

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	m := New()
	m.WriterID = "writer-1"
	m.NextSeq = 42
	m.FlushedSeq = 40
	m.Segments = append(m.Segments, SegmentInfo{
		ID: 1, Path: "segments/000001.seg", Size: 128, Count: 40, MinSeq: 0, MaxSeq: 39,
		KeyFilter: []byte{1, 2, 3},
	})
	require.NoError(t, store.Save(ctx, m))
	assert.Equal(t, uint64(1), m.ID)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), loaded.ID)
	assert.Equal(t, CurrentVersion, loaded.Version)
	assert.Equal(t, "writer-1", loaded.WriterID)
	assert.Equal(t, uint64(42), loaded.NextSeq)
	assert.Equal(t, uint64(40), loaded.FlushedSeq)
	require.Len(t, loaded.Segments, 1)
	assert.Equal(t, []byte{1, 2, 3}, loaded.Segments[0].KeyFilter)

	m.NextSeq = 50
	require.NoError(t, store.Save(ctx, m))
	assert.Equal(t, uint64(2), m.ID)

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), loaded.NextSeq)

	v1, err := store.LoadVersion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v1.NextSeq)
}

func TestIncompatibleVersion(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	store := NewStore(bs)

	require.NoError(t, store.Save(ctx, New()))

	raw, err := blobstore.ReadAll(ctx, bs, FileName(1))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	doc["version"] = 999
	raw, err = json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, bs.Put(ctx, FileName(1), raw))

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore())

	m := New()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(ctx, m))
	}

	ids, err := store.Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, ids)

	require.NoError(t, store.Prune(ctx, 4))

	ids, err = store.Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 5}, ids)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), loaded.ID)
}

func TestClone(t *testing.T) {
	m := New()
	m.Segments = []SegmentInfo{{ID: 1}}

	c := m.Clone()
	c.Segments[0].ID = 7
	c.Segments = append(c.Segments, SegmentInfo{ID: 2})

	assert.Equal(t, uint64(1), m.Segments[0].ID)
	assert.Len(t, m.Segments, 1)
}

func TestParseFileName(t *testing.T) {
	id, ok := parseFileName("MANIFEST-000012.json")
	assert.True(t, ok)
	assert.Equal(t, uint64(12), id)

	_, ok = parseFileName("MANIFEST-000012.bin")
	assert.False(t, ok)
	_, ok = parseFileName("CURRENT")
	assert.False(t, ok)
}
