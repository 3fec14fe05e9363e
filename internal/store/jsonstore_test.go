package store

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadRaw(t *testing.T) {
	st := NewJSONStore(t.TempDir())
	assert.False(t, st.Exists("bootstrap/bootstrap-static.json"))

	require.NoError(t, st.WriteRaw("bootstrap/bootstrap-static.json", []byte(`{"elements":[{"id":1}]}`), true))
	assert.True(t, st.Exists("bootstrap/bootstrap-static.json"))

	raw, err := st.ReadRaw("bootstrap/bootstrap-static.json")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"elements\"")

	_, ok := st.ModTime("bootstrap/bootstrap-static.json")
	assert.True(t, ok)
	_, ok = st.ModTime("missing.json")
	assert.False(t, ok)
}

func TestWriteRawKeepsInvalidJSONVerbatim(t *testing.T) {
	st := NewJSONStore(t.TempDir())
	require.NoError(t, st.WriteRaw("x.json", []byte("not json"), true))
	raw, err := st.ReadRaw("x.json")
	require.NoError(t, err)
	assert.Equal(t, "not json", string(raw))

	entries, err := os.ReadDir(st.Root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestReadRawMissing(t *testing.T) {
	st := NewJSONStore(t.TempDir())
	_, err := st.ReadRaw("nope.json")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
