package wal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_EncodeDecode(t *testing.T) {
	rec := &Record{
		StartSeq: 42,
		Entries: []Entry{
			{Key: []byte("k1"), Value: []byte("v1")},
			{Key: []byte("k2"), Value: nil},
			{Key: nil, Value: []byte("only value")},
		},
	}

	data, err := rec.Marshal()
	require.NoError(t, err)
	assert.Len(t, data, rec.Size())

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.StartSeq)
	assert.Equal(t, uint64(44), got.LastSeq())
	require.Len(t, got.Entries, 3)
	assert.Equal(t, "k1", string(got.Entries[0].Key))
	assert.Equal(t, "v1", string(got.Entries[0].Value))
	assert.Empty(t, got.Entries[1].Value)
	assert.Empty(t, got.Entries[2].Key)
	assert.Equal(t, "only value", string(got.Entries[2].Value))
}

func TestDecode_Corruption(t *testing.T) {
	rec := &Record{StartSeq: 1, Entries: []Entry{{Key: []byte("k"), Value: []byte("v")}}}
	data, err := rec.Marshal()
	require.NoError(t, err)

	t.Run("checksum", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)-1] ^= 0xFF
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrInvalidCRC)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(data[:len(data)-1])
		assert.ErrorIs(t, err, ErrShortRead)
		_, err = Decode(data[:3])
		assert.ErrorIs(t, err, ErrShortRead)
	})

	t.Run("type", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[4] = 9
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrInvalidType)
	})
}

func TestName(t *testing.T) {
	assert.Equal(t, "wal/00000000000000000007.wal", Name(7))
	assert.Less(t, Name(9), Name(10))

	seq, err := ParseName(Name(123456))
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), seq)

	for _, bad := range []string{"segments/1.seg", "wal/abc.wal", "wal/1.log"} {
		_, err := ParseName(bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}
}
