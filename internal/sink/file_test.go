package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTxHashes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "transactionHashes.txt")
	hashes := []string{"0xaa", "0xbb", "0xcc"}

	require.NoError(t, WriteTxHashes(path, hashes))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0xaa\n0xbb\n0xcc", string(data))

	got, err := ReadTxHashes(path)
	require.NoError(t, err)
	assert.Equal(t, hashes, got)
}

func TestWriteTxHashesReplacesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hashes.txt")

	require.NoError(t, WriteTxHashes(path, []string{"0x01", "0x02"}))
	require.NoError(t, WriteTxHashes(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadTxHashesSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.txt")
	require.NoError(t, os.WriteFile(path, []byte("0x01\n\n 0x02 \n"), 0o644))

	got, err := ReadTxHashes(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x01", "0x02"}, got)
}

func TestReadLinesRoundTripsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	lines := []string{`{"event":"Distributed","block":100}`, `{"event":"Distributed","block":599}`}
	require.NoError(t, WriteLines(path, lines))

	got, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}
