package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/logdb/internal/wal"
)

func TestMemTable(t *testing.T) {
	m := newMemTable()
	assert.True(t, m.empty())

	m.add(10, []wal.Entry{entry("a", "1"), entry("b", "2")}, wal.Name(10), 100, 100)
	m.add(12, []wal.Entry{entry("a", "3")}, wal.Name(12), 50, 0)

	assert.False(t, m.empty())
	assert.Equal(t, uint64(12), m.lastSeq())
	assert.Equal(t, int64(150), m.size)
	assert.Equal(t, int64(100), m.reserved)
	assert.Equal(t, []string{wal.Name(10), wal.Name(12)}, m.walNames)

	got := m.scan([]byte("a"), 0)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(10), got[0].Seq)
	assert.Equal(t, uint64(12), got[1].Seq)

	got = m.scan([]byte("a"), 11)
	require.Len(t, got, 1)
	assert.Equal(t, "3", string(got[0].Value))
}

func TestMemTableAbsorb(t *testing.T) {
	older := newMemTable()
	older.add(0, []wal.Entry{entry("k", "0")}, wal.Name(0), 10, 10)
	newer := newMemTable()
	newer.add(1, []wal.Entry{entry("k", "1")}, wal.Name(1), 20, 20)

	older.absorb(newer)

	assert.Equal(t, int64(30), older.reserved)
	assert.Equal(t, []string{wal.Name(0), wal.Name(1)}, older.walNames)
	got := older.scan([]byte("k"), 0)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[1].Seq)
}
