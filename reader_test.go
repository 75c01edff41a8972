package logdb

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/logdb/model"
)

func TestReaderFollowsWriter(t *testing.T) {
	storage := localStorage(t.TempDir())

	db, err := Open(model.Config{Storage: storage}, quiet(), WithSettings(smallSettings()))
	require.NoError(t, err)
	defer db.Close()

	r, err := OpenReader(model.ReaderConfig{Storage: storage, RefreshInterval: 10 * time.Millisecond}, quiet())
	require.NoError(t, err)
	defer r.Close()

	entries, err := r.Scan([]byte("k"), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = db.Append([]model.Record{rec("k", "first", t0)})
	require.NoError(t, err)

	entries, err = r.ScanWait([]byte("k"), 0, 10, 5*time.Second)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, t0, entries[0].TimestampMs)
	assert.Equal(t, []byte("first"), entries[0].Payload)

	payload := make([]byte, 300)
	for i := 0; i < 30; i++ {
		_, err := db.Append([]model.Record{model.NewRecord([]byte("k"), payload, t0+int64(i))})
		require.NoError(t, err)
	}

	require.NoError(t, r.Refresh())
	entries, err = r.Scan([]byte("k"), 0, 100)
	require.NoError(t, err)
	require.Len(t, entries, 31)
	for i, e := range entries {
		assert.Equal(t, uint64(i), e.Sequence)
	}
}

func TestReaderIndependentOfWriterClose(t *testing.T) {
	storage := localStorage(t.TempDir())

	db, err := Open(model.Config{Storage: storage}, quiet())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := db.AppendOne([]byte("k"), []byte(fmt.Sprint(i)))
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	r, err := OpenReader(model.ReaderConfig{Storage: storage}, quiet())
	require.NoError(t, err)

	entries, err := r.Scan([]byte("k"), 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []byte("1"), entries[0].Payload)

	require.NoError(t, r.Close())
	require.ErrorIs(t, r.Close(), ErrEngine)

	_, err = r.Scan([]byte("k"), 0, 1)
	require.ErrorIs(t, err, ErrEngine)
}

func TestOpenReaderInvalidConfig(t *testing.T) {
	_, err := OpenReader(model.ReaderConfig{Storage: model.InMemory{}, RefreshInterval: -time.Second}, quiet())
	require.ErrorIs(t, err, ErrConfig)

	_, err = OpenReader(model.ReaderConfig{}, quiet())
	require.ErrorIs(t, err, ErrConfig)
}
