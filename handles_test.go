package logdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/logdb/model"
)

func createMemory(t *testing.T) Handle {
	t.Helper()
	h, err := Create(map[string]any{
		"storage": map[string]any{"type": "in_memory"},
	}, quiet())
	require.NoError(t, err)
	return h
}

func TestHandleLifecycle(t *testing.T) {
	h := createMemory(t)
	assert.NotZero(t, h)

	res, err := Append(h, []map[string]any{
		{"key": "k1", "payload": "hello", "timestamp_ms": t0},
		{"key": []byte("k1"), "value": []byte("world"), "timestamp_ms": t0 + 1},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.StartSequence)
	assert.Equal(t, t0, res.TimestampMs)

	entries, err := Scan(h, []byte("k1"), 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []byte("hello"), entries[0].Payload)
	assert.Equal(t, t0+1, entries[1].TimestampMs)

	require.NoError(t, Close(h))

	_, err = Scan(h, []byte("k1"), 0, 10)
	require.ErrorIs(t, err, ErrInvalidHandle)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Append(h, []model.Record{rec("k", "v", t0)})
	require.ErrorIs(t, err, ErrInvalidHandle)

	require.ErrorIs(t, Close(h), ErrInvalidHandle)
}

func TestStaleHandleAfterReuse(t *testing.T) {
	old := createMemory(t)
	require.NoError(t, Close(old))

	h := createMemory(t)
	defer Close(h)

	assert.NotEqual(t, old, h)
	_, err := Scan(old, []byte("k"), 0, 1)
	require.ErrorIs(t, err, ErrInvalidHandle)

	_, err = Scan(h, []byte("k"), 0, 1)
	require.NoError(t, err)
}

func TestCreateConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config any
	}{
		{"nil", nil},
		{"unknown storage", map[string]any{"storage": map[string]any{"type": "rocksdb"}}},
		{"unknown object store", map[string]any{"storage": map[string]any{
			"type": "slatedb", "path": "p", "object_store": map[string]any{"type": "gcs"},
		}}},
		{"blank path", map[string]any{"storage": map[string]any{
			"type": "slatedb", "path": " ", "object_store": map[string]any{"type": "in_memory"},
		}}},
		{"wrong type", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Create(tt.config, quiet())
			require.ErrorIs(t, err, ErrConfig)
			assert.Zero(t, h)
		})
	}
}

func TestAppendMarshalErrors(t *testing.T) {
	h := createMemory(t)
	defer Close(h)

	_, err := Append(h, []model.Record{})
	require.ErrorIs(t, err, ErrEmptyBatch)

	_, err = Append(h, nil)
	require.ErrorIs(t, err, ErrEmptyBatch)

	_, err = Append(h, 42)
	require.ErrorIs(t, err, ErrMarshal)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Append(h, []map[string]any{{"payload": "no key"}})
	require.ErrorIs(t, err, ErrMarshal)
}

func TestReaderHandleIsReadOnly(t *testing.T) {
	h, err := CreateReader(map[string]any{
		"storage":             map[string]any{"type": "in_memory"},
		"refresh_interval_ms": 50,
	}, quiet())
	require.NoError(t, err)
	defer Close(h)

	_, err = Append(h, []model.Record{rec("k", "v", t0)})
	require.ErrorIs(t, err, ErrReadOnly)
	require.ErrorIs(t, err, ErrInvalidArgument)

	entries, err := Scan(h, []byte("k"), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = CreateReader(map[string]any{
		"storage":             map[string]any{"type": "in_memory"},
		"refresh_interval_ms": 0,
	}, quiet())
	require.ErrorIs(t, err, ErrConfig)
}

type event struct {
	key, body string
	at        int64
}

func (e event) RecordKey() []byte        { return []byte(e.key) }
func (e event) RecordPayload() []byte    { return []byte(e.body) }
func (e event) RecordTimestampMs() int64 { return e.at }

func TestAppendRecordLike(t *testing.T) {
	h := createMemory(t)
	defer Close(h)

	res, err := Append(h, []RecordLike{event{"k", "first", t0}, event{"k", "second", t0 + 5}})
	require.NoError(t, err)
	assert.Equal(t, t0, res.TimestampMs)

	res, err = Append(h, []any{event{"k", "third", t0 + 9}, map[string]any{"key": "k", "value": "fourth", "timestamp_ms": t0 + 10}})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.StartSequence)

	entries, err := Scan(h, []byte("k"), 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, []byte("second"), entries[1].Payload)
	assert.Equal(t, t0+5, entries[1].TimestampMs)
	assert.Equal(t, []byte("fourth"), entries[3].Payload)
}

func TestAppendRejectsInexactFloatTimestamp(t *testing.T) {
	h := createMemory(t)
	defer Close(h)

	_, err := Append(h, []map[string]any{
		{"key": "k", "payload": "x", "timestamp_ms": float64(1<<53) * 4},
	})
	require.ErrorIs(t, err, ErrMarshal)
	require.ErrorIs(t, err, ErrInvalidArgument)

	res, err := Append(h, []map[string]any{
		{"key": "k", "payload": "x", "timestamp_ms": float64(t0)},
	})
	require.NoError(t, err)
	assert.Equal(t, t0, res.TimestampMs)
}
