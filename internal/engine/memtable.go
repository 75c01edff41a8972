package engine

import (
	"sort"

	"github.com/hupe1980/logdb/internal/segment"
	"github.com/hupe1980/logdb/internal/wal"
)

// memTable buffers appended entries until they are flushed to a segment.
// It is not safe for concurrent use; the Log guards it.
type memTable struct {
	entries  []segment.Entry
	byKey    map[string][]int
	size     int64
	reserved int64
	walNames []string
}

func newMemTable() *memTable {
	return &memTable{byKey: make(map[string][]int)}
}

// add appends a batch whose first entry has sequence start. reserved is the
// part of size accounted with the resource controller, released on flush.
func (m *memTable) add(start uint64, batch []wal.Entry, walName string, size, reserved int64) {
	for i, e := range batch {
		m.byKey[string(e.Key)] = append(m.byKey[string(e.Key)], len(m.entries))
		m.entries = append(m.entries, segment.Entry{
			Seq:   start + uint64(i),
			Key:   e.Key,
			Value: e.Value,
		})
	}
	m.size += size
	m.reserved += reserved
	if walName != "" {
		m.walNames = append(m.walNames, walName)
	}
}

// absorb appends all entries of o, which must be newer than those of m.
func (m *memTable) absorb(o *memTable) {
	for _, e := range o.entries {
		m.byKey[string(e.Key)] = append(m.byKey[string(e.Key)], len(m.entries))
		m.entries = append(m.entries, e)
	}
	m.size += o.size
	m.reserved += o.reserved
	m.walNames = append(m.walNames, o.walNames...)
}

func (m *memTable) empty() bool { return len(m.entries) == 0 }

func (m *memTable) lastSeq() uint64 {
	return m.entries[len(m.entries)-1].Seq
}

// scan returns the entries of key with Seq >= start in sequence order.
func (m *memTable) scan(key []byte, start uint64) []segment.Entry {
	idx := m.byKey[string(key)]
	i := sort.Search(len(idx), func(i int) bool { return m.entries[idx[i]].Seq >= start })
	out := make([]segment.Entry, 0, len(idx)-i)
	for _, j := range idx[i:] {
		out = append(out, m.entries[j])
	}
	return out
}

func batchSize(batch []wal.Entry) int64 {
	var n int64
	for _, e := range batch {
		// seq + key/value length prefixes + slice headers
		n += 64 + int64(len(e.Key)+len(e.Value))
	}
	return n
}
