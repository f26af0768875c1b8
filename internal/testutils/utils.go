package testutils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// MustWriteFile writes content to path, creating parent directories, or
// fails the test.
func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %q: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}

// MustWriteJSON encodes v as indented JSON into path.
func MustWriteJSON(t *testing.T, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("encode %q: %v", path, err)
	}
	MustWriteFile(t, path, string(data))
}

// MustReadFile returns the content of path or fails the test.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %q: %v", path, err)
	}
	return string(data)
}
