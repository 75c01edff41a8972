package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, s.Put(ctx, "b", data))
	require.NoError(t, s.Put(ctx, "a/1", []byte("x")))
	data[0] = 'z'

	got, err := ReadAll(ctx, s, "b")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "b"}, names)

	names, err = s.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1"}, names)

	require.NoError(t, s.Delete(ctx, "b"))
	_, err = s.Open(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrefixedStore(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	s := NewPrefixedStore(inner, "/events/")

	require.NoError(t, s.Put(ctx, "CURRENT", []byte("x")))
	require.NoError(t, s.Put(ctx, "wal/1.wal", []byte("y")))
	require.NoError(t, inner.Put(ctx, "other/CURRENT", []byte("z")))

	_, err := inner.Open(ctx, "events/CURRENT")
	require.NoError(t, err)

	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"CURRENT", "wal/1.wal"}, names)

	names, err = s.List(ctx, "wal/")
	require.NoError(t, err)
	assert.Equal(t, []string{"wal/1.wal"}, names)

	require.NoError(t, s.Delete(ctx, "CURRENT"))
	_, err = s.Open(ctx, "CURRENT")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Same(t, Store(inner), NewPrefixedStore(inner, ""))
}
