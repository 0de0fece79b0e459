package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"a\":1}\n\n{oops\n{\"b\":2}\n"), 0o644))

	recs, skipped, err := readJSONL(path)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, 1, skipped)

	_, _, err = readJSONL(filepath.Join(dir, "missing.jsonl"))
	assert.Error(t, err)
}

func TestStageJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.jsonl")
	require.NoError(t, writeJSONL(path, []json.RawMessage{json.RawMessage(`{"a":1}`)}))

	staged, err := stageJSONL(path, []json.RawMessage{json.RawMessage(`{"b":2}`)})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(data), "target untouched until commit")

	staged.discard()
	_, err = os.Stat(staged.tmp)
	assert.True(t, os.IsNotExist(err))

	staged, err = stageJSONL(path, []json.RawMessage{json.RawMessage(`{"b":2}`)})
	require.NoError(t, err)
	require.NoError(t, staged.commit())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"b\":2}\n", string(data))
}
