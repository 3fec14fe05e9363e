// Package store keeps raw upstream responses on disk, one JSON file per
// endpoint, so analysis can run from cache.
package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

type JSONStore struct {
	Root string // e.g. "data/raw"
}

func NewJSONStore(root string) *JSONStore {
	return &JSONStore{Root: root}
}

func (s *JSONStore) Path(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

func (s *JSONStore) Exists(rel string) bool {
	_, err := os.Stat(s.Path(rel))
	return err == nil
}

// ModTime reports when rel was last written; ok is false if it is missing.
func (s *JSONStore) ModTime(rel string) (t time.Time, ok bool) {
	info, err := os.Stat(s.Path(rel))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// WriteRaw replaces rel atomically: the body goes to a temp file in the same
// directory first so a watcher never sees a half-written file.
func (s *JSONStore) WriteRaw(rel string, body []byte, pretty bool) error {
	path := s.Path(rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if pretty {
		buf := &bytes.Buffer{}
		if err := json.Indent(buf, body, "", "  "); err == nil {
			buf.WriteByte('\n')
			body = buf.Bytes()
		}
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *JSONStore) ReadRaw(rel string) ([]byte, error) {
	return os.ReadFile(s.Path(rel))
}
