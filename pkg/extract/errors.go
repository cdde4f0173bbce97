package extract

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlmine/pkg/token"
)

// ErrUnsupportedFileType is returned when no tokenizer handles a path's extension.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// ParsingError reports an unterminated string literal or a literal that
// cannot be decoded.
type ParsingError struct {
	Line        int
	LineContent string
	Column      int
	Message     string
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("parsing error at line %d, column %d: %s\n\t%s", e.Line, e.Column, e.Message, e.LineContent)
}

// Common error messages
const (
	errUnterminatedString = "unterminated string literal"
	errMalformedEscape    = "malformed escape sequence: %v"
)

// newParsingError builds a ParsingError for a position in source. offset is
// any byte offset on the offending line.
func newParsingError(source string, line, column, offset int, format string, args ...any) *ParsingError {
	return &ParsingError{
		Line:        line,
		LineContent: token.LineAt(source, offset),
		Column:      column,
		Message:     fmt.Sprintf(format, args...),
	}
}

// unsupportedFileType wraps ErrUnsupportedFileType with the offending extension.
func unsupportedFileType(ext string) error {
	return fmt.Errorf("%w %q", ErrUnsupportedFileType, ext)
}
