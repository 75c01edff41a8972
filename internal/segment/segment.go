package segment

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"hash/fnv"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

const (
	magic      = "LDBSEG01"
	headerSize = 8 + 1 + 4 + 8 + 8 + 4 + 4 + 4
)

var (
	// ErrCorrupt is returned when a segment fails validation.
	ErrCorrupt = errors.New("corrupt segment")
	// ErrEmpty is returned when building a segment without entries.
	ErrEmpty = errors.New("segment has no entries")
	// ErrUnordered is returned when entries are not in ascending sequence order.
	ErrUnordered = errors.New("segment entries out of order")
)

// Entry is a sequenced key/value pair.
type Entry struct {
	Seq   uint64
	Key   []byte
	Value []byte
}

// Info summarizes a built segment.
type Info struct {
	Count  uint32
	MinSeq uint64
	MaxSeq uint64
	// Filter is the serialized roaring bitmap of key hashes.
	Filter []byte
}

// KeyHash is the hash recorded in segment filters.
func KeyHash(key []byte) uint32 {
	h := fnv.New32a()
	h.Write(key)
	return h.Sum32()
}

// MayContain reports whether a segment with the given filter may hold key.
// A missing or unreadable filter never excludes a segment.
func MayContain(filter []byte, key []byte) bool {
	if len(filter) == 0 {
		return true
	}
	bm := roaring.New()
	if _, err := bm.FromBuffer(filter); err != nil {
		return true
	}
	return bm.Contains(KeyHash(key))
}

// Build encodes entries, which must be in strictly ascending sequence order.
func Build(entries []Entry, c Compression) ([]byte, Info, error) {
	if len(entries) == 0 {
		return nil, Info{}, ErrEmpty
	}

	rawLen := 0
	filter := roaring.New()
	for i, e := range entries {
		if i > 0 && e.Seq <= entries[i-1].Seq {
			return nil, Info{}, fmt.Errorf("%w: %d after %d", ErrUnordered, e.Seq, entries[i-1].Seq)
		}
		rawLen += 8 + 4 + len(e.Key) + 4 + len(e.Value)
		filter.Add(KeyHash(e.Key))
	}

	raw := make([]byte, rawLen)
	off := 0
	for _, e := range entries {
		binary.LittleEndian.PutUint64(raw[off:], e.Seq)
		off += 8
		binary.LittleEndian.PutUint32(raw[off:], uint32(len(e.Key)))
		off += 4
		off += copy(raw[off:], e.Key)
		binary.LittleEndian.PutUint32(raw[off:], uint32(len(e.Value)))
		off += 4
		off += copy(raw[off:], e.Value)
	}

	body, used, err := compress(raw, c)
	if err != nil {
		return nil, Info{}, err
	}

	info := Info{
		Count:  uint32(len(entries)),
		MinSeq: entries[0].Seq,
		MaxSeq: entries[len(entries)-1].Seq,
	}
	filter.RunOptimize()
	if info.Filter, err = filter.ToBytes(); err != nil {
		return nil, Info{}, err
	}

	out := make([]byte, headerSize+len(body))
	copy(out, magic)
	out[8] = byte(used)
	binary.LittleEndian.PutUint32(out[9:], info.Count)
	binary.LittleEndian.PutUint64(out[13:], info.MinSeq)
	binary.LittleEndian.PutUint64(out[21:], info.MaxSeq)
	binary.LittleEndian.PutUint32(out[29:], uint32(rawLen))
	binary.LittleEndian.PutUint32(out[33:], uint32(len(body)))
	binary.LittleEndian.PutUint32(out[37:], crc32.ChecksumIEEE(body))
	copy(out[headerSize:], body)

	return out, info, nil
}

// Segment is a decoded, immutable segment.
type Segment struct {
	minSeq  uint64
	maxSeq  uint64
	entries []Entry
	byKey   map[string][]int
}

// Open decodes a segment. The returned Segment does not alias data.
func Open(data []byte) (*Segment, error) {
	if len(data) < headerSize || !bytes.Equal(data[:8], []byte(magic)) {
		return nil, ErrCorrupt
	}

	codec := Compression(data[8])
	count := binary.LittleEndian.Uint32(data[9:])
	minSeq := binary.LittleEndian.Uint64(data[13:])
	maxSeq := binary.LittleEndian.Uint64(data[21:])
	rawLen := int(binary.LittleEndian.Uint32(data[29:]))
	bodyLen := int(binary.LittleEndian.Uint32(data[33:]))
	checksum := binary.LittleEndian.Uint32(data[37:])

	if len(data) != headerSize+bodyLen {
		return nil, ErrCorrupt
	}
	body := data[headerSize:]
	if crc32.ChecksumIEEE(body) != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	raw, err := decompress(body, codec, rawLen)
	if err != nil {
		return nil, err
	}
	if codec == CompressionNone {
		raw = bytes.Clone(raw)
	}

	s := &Segment{
		minSeq:  minSeq,
		maxSeq:  maxSeq,
		entries: make([]Entry, 0, count),
		byKey:   make(map[string][]int),
	}

	off := 0
	for i := uint32(0); i < count; i++ {
		if len(raw) < off+12 {
			return nil, ErrCorrupt
		}
		seq := binary.LittleEndian.Uint64(raw[off:])
		off += 8
		kl := int(binary.LittleEndian.Uint32(raw[off:]))
		off += 4
		if len(raw) < off+kl+4 {
			return nil, ErrCorrupt
		}
		key := raw[off : off+kl : off+kl]
		off += kl
		vl := int(binary.LittleEndian.Uint32(raw[off:]))
		off += 4
		if len(raw) < off+vl {
			return nil, ErrCorrupt
		}
		value := raw[off : off+vl : off+vl]
		off += vl

		s.byKey[string(key)] = append(s.byKey[string(key)], len(s.entries))
		s.entries = append(s.entries, Entry{Seq: seq, Key: key, Value: value})
	}
	if off != len(raw) {
		return nil, ErrCorrupt
	}

	return s, nil
}

// MinSeq returns the smallest sequence in the segment.
func (s *Segment) MinSeq() uint64 { return s.minSeq }

// MaxSeq returns the largest sequence in the segment.
func (s *Segment) MaxSeq() uint64 { return s.maxSeq }

// Len returns the number of entries.
func (s *Segment) Len() int { return len(s.entries) }

// Entries returns all entries in sequence order.
func (s *Segment) Entries() []Entry { return s.entries }

// Scan returns the entries of key with Seq >= start, in sequence order.
func (s *Segment) Scan(key []byte, start uint64) []Entry {
	idx := s.byKey[string(key)]
	i := sort.Search(len(idx), func(i int) bool { return s.entries[idx[i]].Seq >= start })
	out := make([]Entry, 0, len(idx)-i)
	for _, j := range idx[i:] {
		out = append(out, s.entries[j])
	}
	return out
}
