// Package shard reads input shards: gzip-compressed, newline-delimited JSON
// files holding one source record per line.
package shard

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// ErrMissingContent is returned by Record.Source when the record carries no
// content field.
var ErrMissingContent = errors.New("record has no content")

// Record is one source file of a shard.
type Record struct {
	RepoName string  `json:"repo_name"`
	Path     string  `json:"path"`
	Content  *string `json:"content,omitempty"`
}

// Source returns the record content, or ErrMissingContent.
func (r Record) Source() (string, error) {
	if r.Content == nil {
		return "", fmt.Errorf("%s/%s: %w", r.RepoName, r.Path, ErrMissingContent)
	}
	return *r.Content, nil
}

// RecordError reports a shard line that is not a valid record.
type RecordError struct {
	Shard string
	Line  int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s:%d: invalid record: %v", e.Shard, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Discover returns the regular files directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Reader streams the records of one shard in file order.
type Reader struct {
	path string
	f    *os.File
	gz   *gzip.Reader
	br   *bufio.Reader
	line int
}

// Open opens a shard for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path) //nolint:gosec // shard paths come from the input directory
	if err != nil {
		return nil, fmt.Errorf("failed to open shard: %w", err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read gzip header of %s: %w", path, err)
	}
	return &Reader{path: path, f: f, gz: gz, br: bufio.NewReaderSize(gz, 1<<20)}, nil
}

// Next returns the next record, or io.EOF after the last one. Blank lines
// are skipped.
func (r *Reader) Next() (Record, error) {
	for {
		raw, err := r.br.ReadBytes('\n')
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return Record{}, io.EOF
			}
			return Record{}, fmt.Errorf("failed to read shard %s: %w", r.path, err)
		}
		r.line++

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}

		var rec Record
		if uerr := json.Unmarshal(raw, &rec); uerr != nil {
			return Record{}, &RecordError{Shard: r.path, Line: r.line, Err: uerr}
		}
		return rec, nil
	}
}

// Line returns the number of lines read so far.
func (r *Reader) Line() int {
	return r.line
}

// Close closes the shard.
func (r *Reader) Close() error {
	gzErr := r.gz.Close()
	if err := r.f.Close(); err != nil {
		return err
	}
	return gzErr
}
