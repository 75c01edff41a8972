package logdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	buf.Reset()
	return line
}

func TestLoggerScanFields(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf)

	l.LogScan(context.Background(), []byte("orders"), 7, 3, nil)
	line := decodeLine(t, &buf)
	assert.Equal(t, "scan completed", line["msg"])
	assert.Equal(t, "orders", line["key"])
	assert.EqualValues(t, 7, line["sequence"])
	assert.EqualValues(t, 3, line["results"])

	l.LogScan(context.Background(), []byte("orders"), 9, 0, errors.New("boom"))
	line = decodeLine(t, &buf)
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "orders", line["key"])
	assert.EqualValues(t, 9, line["sequence"])
	assert.Equal(t, "boom", line["error"])
}

func TestLoggerAppendFields(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf)

	l.LogAppend(context.Background(), 2, 40, nil)
	line := decodeLine(t, &buf)
	assert.Equal(t, "append completed", line["msg"])
	assert.EqualValues(t, 40, line["sequence"])
	assert.EqualValues(t, 2, line["count"])

	// The derived loggers never leak fields back into the parent.
	l.LogOpen(context.Background(), "writer", "in_memory", nil)
	line = decodeLine(t, &buf)
	assert.NotContains(t, line, "sequence")
	assert.NotContains(t, line, "key")
}

func TestNoopLoggerDiscards(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.LogScan(context.Background(), []byte("k"), 0, 0, errors.New("ignored"))
}
