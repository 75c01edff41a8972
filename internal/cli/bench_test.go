package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/logdb/model"
)

func TestBenchInMemory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mem.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  type: in_memory\n"), 0o600))

	out, err := execute(t, "-c", path, "--format", "json", "bench", "--records", "50", "--batch", "5")
	require.NoError(t, err)

	var res BenchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 50, res.Records)
	assert.LessOrEqual(t, res.P50, res.P99)
	assert.LessOrEqual(t, res.P99, res.Max)
}

func TestBenchIndependentReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "local.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  type: slatedb
  path: bench
  object_store:
    type: local
    path: `+filepath.Join(dir, "data")+`
refresh_interval_ms: 5
`), 0o600))

	out, err := execute(t, "-c", path, "bench", "--records", "20", "--rate", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "records=20")
}

func TestBenchRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "--data-dir", t.TempDir(), "bench", "--records", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(1), percentile(sorted, 0))
	assert.Equal(t, time.Duration(5), percentile(sorted, 0.5))
	assert.Equal(t, time.Duration(9), percentile(sorted, 0.99))
	assert.Equal(t, time.Duration(10), percentile(sorted, 1))
}

func TestShareable(t *testing.T) {
	assert.False(t, shareable(model.InMemory{}))
	assert.False(t, shareable(model.SlateDb{Path: "p", ObjectStore: model.InMemoryObjectStore{}}))
	assert.True(t, shareable(model.SlateDb{Path: "p", ObjectStore: model.LocalObjectStore{Path: "/tmp"}}))
}
