package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// WriteShard writes lines as a gzip shard named name inside dir and
// returns its path.
func WriteShard(t testing.TB, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create shard: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		t.Fatalf("failed to write shard: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close shard: %v", err)
	}
	return path
}

// RecordLine encodes one shard record. A nil content omits the field.
func RecordLine(t testing.TB, repo, path string, content *string) string {
	t.Helper()
	rec := map[string]any{"repo_name": repo, "path": path}
	if content != nil {
		rec["content"] = *content
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("failed to encode record: %v", err)
	}
	return string(b)
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}
