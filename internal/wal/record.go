// Package wal encodes the write-ahead records the engine persists before an
// append is acknowledged. Each record holds one whole batch and is stored as
// its own blob, named after the batch's first sequence number.
package wal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strconv"
	"strings"
)

// RecordType identifies the type of WAL record.
type RecordType uint8

const (
	RecordTypeBatch RecordType = 1
)

// Prefix is the blob name prefix of every WAL record.
const Prefix = "wal/"

const (
	headerSize    = 1 + 8 + 4 + 4 // Type + StartSeq + Count + Length
	maxRecordSize = 256 * 1024 * 1024
)

var (
	ErrInvalidCRC     = errors.New("invalid WAL record checksum")
	ErrInvalidType    = errors.New("invalid WAL record type")
	ErrShortRead      = errors.New("short read in WAL record")
	ErrRecordTooLarge = errors.New("WAL record too large")
	ErrInvalidName    = errors.New("invalid WAL blob name")
)

// Entry is one key/value pair of a batch.
type Entry struct {
	Key   []byte
	Value []byte
}

// Record is one appended batch. Entry i has sequence StartSeq+i.
type Record struct {
	StartSeq uint64
	Entries  []Entry
}

// LastSeq returns the sequence of the last entry.
func (r *Record) LastSeq() uint64 {
	return r.StartSeq + uint64(len(r.Entries)) - 1
}

// Size returns the encoded size of the record.
func (r *Record) Size() int {
	n := 4 + headerSize
	for _, e := range r.Entries {
		n += 4 + len(e.Key) + 4 + len(e.Value)
	}
	return n
}

// Encode writes the record to w.
// Format:
// [CRC32: 4 bytes] [Type: 1 byte] [StartSeq: 8 bytes] [Count: 4 bytes] [Length: 4 bytes] [Payload: Length bytes]
// Payload: Count x ([KeyLen: 4 bytes] [Key] [ValueLen: 4 bytes] [Value])
func (r *Record) Encode(w io.Writer) error {
	payloadLen := r.Size() - 4 - headerSize
	if payloadLen > maxRecordSize {
		return ErrRecordTooLarge
	}

	buf := make([]byte, r.Size())
	body := buf[4:]
	body[0] = byte(RecordTypeBatch)
	binary.LittleEndian.PutUint64(body[1:], r.StartSeq)
	binary.LittleEndian.PutUint32(body[9:], uint32(len(r.Entries)))
	binary.LittleEndian.PutUint32(body[13:], uint32(payloadLen))

	off := headerSize
	for _, e := range r.Entries {
		binary.LittleEndian.PutUint32(body[off:], uint32(len(e.Key)))
		off += 4
		off += copy(body[off:], e.Key)
		binary.LittleEndian.PutUint32(body[off:], uint32(len(e.Value)))
		off += 4
		off += copy(body[off:], e.Value)
	}

	binary.LittleEndian.PutUint32(buf, crc32.ChecksumIEEE(body))
	_, err := w.Write(buf)
	return err
}

// Marshal returns the encoded record.
func (r *Record) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(r.Size())
	if err := r.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode.
// Keys and values alias data.
func Decode(data []byte) (*Record, error) {
	if len(data) < 4+headerSize {
		return nil, ErrShortRead
	}

	checksum := binary.LittleEndian.Uint32(data)
	body := data[4:]

	if RecordType(body[0]) != RecordTypeBatch {
		return nil, ErrInvalidType
	}
	startSeq := binary.LittleEndian.Uint64(body[1:])
	count := binary.LittleEndian.Uint32(body[9:])
	length := binary.LittleEndian.Uint32(body[13:])

	if length > maxRecordSize {
		return nil, ErrRecordTooLarge
	}
	if len(body) < headerSize+int(length) {
		return nil, ErrShortRead
	}
	body = body[:headerSize+int(length)]

	if crc32.ChecksumIEEE(body) != checksum {
		return nil, ErrInvalidCRC
	}

	payload := body[headerSize:]
	rec := &Record{StartSeq: startSeq, Entries: make([]Entry, 0, count)}
	off := 0
	for i := uint32(0); i < count; i++ {
		key, n, err := readBytes(payload, off)
		if err != nil {
			return nil, err
		}
		off = n
		value, n, err := readBytes(payload, off)
		if err != nil {
			return nil, err
		}
		off = n
		rec.Entries = append(rec.Entries, Entry{Key: key, Value: value})
	}

	return rec, nil
}

func readBytes(payload []byte, off int) ([]byte, int, error) {
	if len(payload) < off+4 {
		return nil, 0, ErrShortRead
	}
	n := int(binary.LittleEndian.Uint32(payload[off:]))
	off += 4
	if len(payload) < off+n {
		return nil, 0, ErrShortRead
	}
	return payload[off : off+n : off+n], off + n, nil
}

// Name returns the blob name of the record starting at startSeq.
// Names sort in sequence order.
func Name(startSeq uint64) string {
	return fmt.Sprintf("%s%020d.wal", Prefix, startSeq)
}

// ParseName returns the start sequence encoded in a WAL blob name.
func ParseName(name string) (uint64, error) {
	s, ok := strings.CutPrefix(name, Prefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	s, ok = strings.CutSuffix(s, ".wal")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	seq, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return seq, nil
}
