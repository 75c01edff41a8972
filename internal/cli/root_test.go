package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "logdb", cmd.Use)

	for _, name := range []string{"append", "scan", "bench"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	config := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, config)
	assert.Equal(t, "c", config.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFlags(t *testing.T) {
	_, err := execute(t, "--format", "xml", "scan", "k")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "--log-level", "loud", "scan", "k")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAppendThenScan(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "--data-dir", dir, "append", "orders", "created", "paid", "--timestamp-ms", "1700000000000")
	require.NoError(t, err)
	assert.Equal(t, "appended 2 record(s) at sequence 0\n", out)

	out, err = execute(t, "--data-dir", dir, "append", "other", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "at sequence 2")

	out, err = execute(t, "--data-dir", dir, "scan", "orders")
	require.NoError(t, err)
	assert.Equal(t, "0\t1700000000000\torders\tcreated\n1\t1700000000000\torders\tpaid\n", out)

	out, err = execute(t, "--data-dir", dir, "--format", "json", "scan", "orders", "--start", "1")
	require.NoError(t, err)

	var e entryJSON
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &e))
	assert.Equal(t, entryJSON{Sequence: 1, TimestampMs: 1700000000000, Key: "orders", Payload: "paid"}, e)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  type: slatedb
  path: events
  object_store:
    type: local
    path: `+filepath.Join(dir, "data")+`
refresh_interval_ms: 10
`), 0o600))

	_, err := execute(t, "-c", path, "append", "k", "v")
	require.NoError(t, err)

	out, err := execute(t, "-c", path, "scan", "k")
	require.NoError(t, err)
	assert.Contains(t, out, "\tk\tv\n")

	_, err = os.Stat(filepath.Join(dir, "data", "events"))
	require.NoError(t, err)
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("storage:\n  type: cassandra\n"), 0o600))

	_, err := execute(t, "-c", bad, "append", "k", "v")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "-c", bad, "scan", "k")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "-c", filepath.Join(dir, "missing.yaml"), "scan", "k")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = execute(t, "-c", empty, "scan", "k")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
}
