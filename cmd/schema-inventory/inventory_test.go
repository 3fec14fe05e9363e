package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkSchema(t *testing.T) {
	schema := make(SchemaMap)
	walkSchema(map[string]any{
		"picks":         []any{map[string]any{"element": 1.0, "is_captain": true}},
		"chips":         []any{},
		"entry_history": map[string]any{"bank": 20.0, "note": nil},
	}, "$", schema)
	walkSchema(map[string]any{"entry_history": map[string]any{"bank": "2.0"}}, "$", schema)

	fields := schemaToFields(schema)
	byPath := make(map[string][]string, len(fields))
	for _, f := range fields {
		byPath[f.Path] = f.Types
	}

	assert.Equal(t, []string{"object"}, byPath["$"])
	assert.Equal(t, []string{"array"}, byPath["$.picks"])
	assert.Equal(t, []string{"number"}, byPath["$.picks[].element"])
	assert.Equal(t, []string{"bool"}, byPath["$.picks[].is_captain"])
	assert.Equal(t, []string{"unknown"}, byPath["$.chips[]"])
	assert.Equal(t, []string{"number", "string"}, byPath["$.entry_history.bank"])
	assert.Equal(t, []string{"null"}, byPath["$.entry_history.note"])

	for i := 1; i < len(fields); i++ {
		assert.Less(t, fields[i-1].Path, fields[i].Path)
	}
}

func TestMissingPaths(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		required []string
		want     []string
	}{
		{
			name:     "all present",
			raw:      `{"picks":[{"element":1,"position":1}],"entry_history":{"bank":0}}`,
			required: []string{"picks.0.element", "picks.0.position", "entry_history.bank"},
		},
		{
			name:     "null counts as present",
			raw:      `{"transfers":{"bank":5,"limit":null,"made":0}}`,
			required: []string{"transfers.bank", "transfers.limit", "transfers.made"},
		},
		{
			name:     "missing bank",
			raw:      `{"picks":[{"element":1,"position":1}],"entry_history":{}}`,
			required: []string{"picks.0.element", "entry_history.bank"},
			want:     []string{"entry_history.bank"},
		},
		{
			name:     "empty array skipped",
			raw:      `[]`,
			required: []string{"0.team_h"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, missingPaths([]byte(tt.raw), tt.required))
		})
	}
}

func TestScanEntryPicks(t *testing.T) {
	root := t.TempDir()
	write := func(rel, body string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	write("entry/1/gw/8/picks.json", `{"picks":[{"element":1,"position":1}],"entry_history":{"bank":20}}`)
	write("entry/2/gw/8/picks.json", `{"picks":[{"element":3,"position":1}]}`)
	write("entry/3/gw/8/picks.json", `not json`)

	var picks source
	for _, s := range sources(root) {
		if s.Name == "entry-picks" {
			picks = s
		}
	}
	require.NotEmpty(t, picks.Glob)

	ep, ok, err := scan(picks, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, ep.FilesScanned)
	assert.Equal(t, []string{"entry_history.bank"}, ep.Missing)

	ep, _, err = scan(picks, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ep.FilesScanned)
	assert.Empty(t, ep.Missing)

	_, ok, err = scan(source{Name: "none", Glob: filepath.Join(root, "nope", "*.json")}, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
