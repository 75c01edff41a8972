package engine

import (
	"cmp"
	"context"
	"slices"

	"github.com/hupe1980/logdb/internal/segment"
)

// Entry is a sequenced key/value pair returned by scans.
type Entry = segment.Entry

// Iterator walks the entries of one key in ascending sequence order.
// The entries are captured when the scan is opened.
type Iterator struct {
	entries []Entry
	pos     int
}

func newIterator(entries []Entry) *Iterator {
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return &Iterator{entries: entries}
}

// Next returns the next entry. ok is false once the iterator is exhausted.
func (it *Iterator) Next(ctx context.Context) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	if it.pos >= len(it.entries) {
		return Entry{}, false, nil
	}
	e := it.entries[it.pos]
	it.pos++
	return e, true, nil
}

// Remaining returns the number of entries not yet returned by Next.
func (it *Iterator) Remaining() int {
	return len(it.entries) - it.pos
}
