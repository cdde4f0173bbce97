// Package sink writes validated rows to the output CSV file incrementally.
package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Header is the fixed first record of every output file.
var Header = []string{"repo", "file_path", "sql_query"}

// Row is one validated query.
type Row struct {
	Repo  string
	Path  string
	Query string
}

// Writer appends rows to a CSV file in the configured text encoding. Rows
// that cannot be represented are logged and skipped.
type Writer struct {
	f       *os.File
	out     io.Writer
	closer  io.Closer
	csv     *csv.Writer
	check   *encoding.Encoder
	utf8    bool
	logger  *slog.Logger
	written int
	skipped int
}

// LookupEncoding resolves a WHATWG encoding label such as utf-8,
// windows-1252 or shift_jis.
func LookupEncoding(name string) (encoding.Encoding, error) {
	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown output encoding %q: %w", name, err)
	}
	return e, nil
}

// Create truncates path and writes the header.
func Create(path, encodingName string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path) //nolint:gosec // operator-chosen output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := &Writer{f: f, logger: logger, utf8: enc == unicode.UTF8}
	if w.utf8 {
		w.out = f
	} else {
		tw := transform.NewWriter(f, enc.NewEncoder())
		w.out, w.closer = tw, tw
		w.check = enc.NewEncoder()
	}
	w.csv = csv.NewWriter(w.out)

	if err := w.csv.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return w, nil
}

// Write appends rows, skipping any row that cannot be encoded.
func (w *Writer) Write(rows ...Row) error {
	for _, r := range rows {
		rec := []string{r.Repo, r.Path, r.Query}
		if err := w.encodable(rec); err != nil {
			w.skipped++
			w.logger.Warn("skipping row that cannot be written",
				slog.String("repo", r.Repo),
				slog.String("path", r.Path),
				slog.String("query", r.Query),
				slog.String("error", err.Error()))
			continue
		}
		if err := w.csv.Write(rec); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		w.written++
	}
	return nil
}

func (w *Writer) encodable(rec []string) error {
	for _, field := range rec {
		if !utf8.ValidString(field) {
			return fmt.Errorf("invalid UTF-8 in %q", truncate(field))
		}
		if w.check != nil {
			if _, err := w.check.String(field); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush writes buffered rows to the file.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Written returns the number of rows written.
func (w *Writer) Written() int {
	return w.written
}

// Skipped returns the number of rows skipped as unencodable.
func (w *Writer) Skipped() int {
	return w.skipped
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	flushErr := w.Flush()
	if w.closer != nil {
		if err := w.closer.Close(); err != nil && flushErr == nil {
			flushErr = err
		}
	}
	if err := w.f.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	return flushErr
}

func truncate(s string) string {
	const max = 40
	if len(s) <= max {
		return s
	}
	return strings.ToValidUTF8(s[:max], "") + "..."
}
