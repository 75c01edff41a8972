// Package envelope implements the stored value layout written by logdb:
// an 8-byte big-endian timestamp header followed by the raw payload.
package envelope

import "encoding/binary"

// HeaderSize is the size of the timestamp header in bytes.
const HeaderSize = 8

// Encode prefixes payload with the big-endian encoding of timestampMs.
// The result is allocated once at its final size.
func Encode(timestampMs int64, payload []byte) []byte {
	out := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint64(out, uint64(timestampMs))
	copy(out[HeaderSize:], payload)
	return out
}

// Decode splits a stored value into its timestamp and payload.
//
// Values shorter than HeaderSize were not written through Encode; they are
// returned unchanged with a zero timestamp. Decode never fails.
func Decode(value []byte) (int64, []byte) {
	if len(value) < HeaderSize {
		return 0, value
	}
	return int64(binary.BigEndian.Uint64(value[:HeaderSize])), value[HeaderSize:]
}
