package extract

import (
	"strings"

	"github.com/leapstack-labs/sqlmine/pkg/token"
)

// scanner is the cursor shared by every tokenizer. It tracks the byte offset
// together with the line and column of the current character so that
// positions stay continuous no matter how the cursor is moved.
type scanner struct {
	src  string
	pos  int // current offset in src
	line int // current line number (1-based)
	col  int // current column number (1-based)

	// silent suppresses token emission while skimming text between
	// keyword windows.
	silent bool

	tokens []token.Token
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1, col: 1}
}

// eof reports whether the cursor is past the end of input.
func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

// cur returns the current character, or 0 at EOF.
func (s *scanner) cur() byte {
	return s.peek(0)
}

// peek returns the character n positions ahead without advancing.
func (s *scanner) peek(n int) byte {
	if s.pos+n >= len(s.src) || s.pos+n < 0 {
		return 0
	}
	return s.src[s.pos+n]
}

// hasPrefix reports whether the remaining input starts with p.
func (s *scanner) hasPrefix(p string) bool {
	return strings.HasPrefix(s.src[s.pos:], p)
}

// advance moves the cursor forward one byte.
func (s *scanner) advance() {
	if s.eof() {
		return
	}
	if s.src[s.pos] == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.pos++
}

// advanceN moves the cursor forward n bytes.
func (s *scanner) advanceN(n int) {
	for i := 0; i < n; i++ {
		s.advance()
	}
}

// advanceTo moves the cursor forward to offset, counting lines on the way.
func (s *scanner) advanceTo(offset int) {
	if offset > len(s.src) {
		offset = len(s.src)
	}
	if offset <= s.pos {
		return
	}
	skipped := s.src[s.pos:offset]
	if n := strings.Count(skipped, "\n"); n > 0 {
		s.line += n
		s.col = offset - (s.pos + strings.LastIndexByte(skipped, '\n'))
	} else {
		s.col += offset - s.pos
	}
	s.pos = offset
}

// mark captures the current cursor for a token start or a rewind.
type mark struct {
	pos, line, col int
}

func (s *scanner) mark() mark {
	return mark{pos: s.pos, line: s.line, col: s.col}
}

func (s *scanner) reset(m mark) {
	s.pos, s.line, s.col = m.pos, m.line, m.col
}

// emit appends a token that started at m and ends at the cursor.
func (s *scanner) emit(kind token.Kind, literal string, m mark) {
	if s.silent {
		return
	}
	s.tokens = append(s.tokens, token.New(kind, literal, token.Position{
		Line:        m.line,
		Column:      m.col,
		SourceIndex: s.pos,
	}))
}

// emitChar emits the current character as a single-character token.
func (s *scanner) emitChar(kind token.Kind) {
	m := s.mark()
	c := s.cur()
	s.advance()
	s.emit(kind, string(c), m)
}

// unterminated returns the error for a string literal opened at m.
func (s *scanner) unterminated(m mark) *ParsingError {
	return newParsingError(s.src, m.line, m.col, m.pos, errUnterminatedString)
}

// skipLine skips to the end of the line, leaving the line break unconsumed.
func (s *scanner) skipLine() {
	for !s.eof() && s.cur() != '\n' {
		s.advance()
	}
}

// skipBlockComment skips a /* ... */ comment, or to EOF if it never closes.
func (s *scanner) skipBlockComment() {
	s.advanceN(2)
	end := strings.Index(s.src[s.pos:], "*/")
	if end < 0 {
		s.advanceTo(len(s.src))
		return
	}
	s.advanceTo(s.pos + end + 2)
}

// isLetter returns true for ASCII letters and any byte of a multi-byte
// UTF-8 sequence, so non-ASCII identifiers stay in one token.
func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= 0x80
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isWordChar returns true for letters, digits and underscore.
func isWordChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}

// isQuote returns true for the two common string delimiters.
func isQuote(ch byte) bool {
	return ch == '"' || ch == '\''
}

// isSpace returns true for horizontal whitespace and carriage return.
func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v'
}
