package extract

import (
	"strings"

	"github.com/leapstack-labs/sqlmine/pkg/token"
)

// phpExtractor handles templated-script sources. '.' concatenates, strings
// may span lines and heredoc blocks are read as literals.
type phpExtractor struct{}

var phpSyntax = &syntax{
	lineComments:     []string{"//", "#"},
	concat:           '.',
	multilineStrings: true,
	heredoc:          true,
	isIdentStart:     func(ch byte) bool { return isLetter(ch) || ch == '_' || ch == '$' },
	readIdent:        readPHPIdent,
}

func (phpExtractor) Language() Language { return PHP }

// Tokenize scans the keyword windows of source.
func (phpExtractor) Tokenize(source string) ([]token.Token, error) {
	return tokenizeWindows(source, phpSyntax)
}

// Parse reconstructs candidates like the C family and then normalizes them
// into the sandbox dialect.
func (phpExtractor) Parse(source string, tokens []token.Token) ([]string, error) {
	return parseSubstituting(source, tokens, normalizeTemplated)
}

// readPHPIdent reads a variable or name including -> and :: member access,
// e.g. $this->table or self::TABLE.
func readPHPIdent(s *scanner) {
	m := s.mark()
	for !s.eof() {
		c := s.cur()
		switch {
		case isWordChar(c) || c == '$':
			s.advance()
		case c == '-' && s.peek(1) == '>' && (isLetter(s.peek(2)) || s.peek(2) == '_'):
			s.advanceN(2)
		case c == ':' && s.peek(1) == ':' && (isLetter(s.peek(2)) || s.peek(2) == '_' || s.peek(2) == '$'):
			s.advanceN(2)
		default:
			s.emit(token.Identifier, s.src[m.pos:s.pos], m)
			return
		}
	}
	s.emit(token.Identifier, s.src[m.pos:s.pos], m)
}

// readHeredoc reads <<<ID / <<<"ID" (StringLiteral) or <<<'ID' (nowdoc,
// RawStringLiteral) blocks. It returns false without consuming input when
// the cursor is not at a well-formed heredoc opener.
func (s *scanner) readHeredoc() (bool, error) {
	m := s.mark()
	rest := s.src[s.pos+3:]
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}
	quote := byte(0)
	if i < len(rest) && isQuote(rest[i]) {
		quote = rest[i]
		i++
	}
	idStart := i
	for i < len(rest) && isWordChar(rest[i]) {
		i++
	}
	id := rest[idStart:i]
	if id == "" || isDigit(id[0]) {
		return false, nil
	}
	if quote != 0 {
		if i >= len(rest) || rest[i] != quote {
			return false, nil
		}
		i++
	}
	if i < len(rest) && rest[i] == '\r' {
		i++
	}
	if i >= len(rest) || rest[i] != '\n' {
		return false, nil
	}

	bodyStart := s.pos + 3 + i + 1
	bodyEnd, closeEnd := findHeredocClose(s.src, bodyStart, id)
	if bodyEnd < 0 {
		return true, s.unterminated(m)
	}

	body := s.src[bodyStart:bodyEnd]
	s.advanceTo(closeEnd)
	kind := token.StringLiteral
	if quote == '\'' {
		kind = token.RawStringLiteral
	}
	s.emit(kind, body, m)
	return true, nil
}

// findHeredocClose finds the closing line of a heredoc body starting at
// from. It returns the end of the body (excluding the final line break) and
// the offset just past the closing identifier, or -1.
func findHeredocClose(src string, from int, id string) (int, int) {
	lineStart := from
	for lineStart <= len(src) {
		lineEnd := strings.IndexByte(src[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(src)
		} else {
			lineEnd += lineStart
		}
		line := src[lineStart:lineEnd]
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, id) && (len(trimmed) == len(id) || !isWordChar(trimmed[len(id)])) {
			bodyEnd := lineStart - 1
			if bodyEnd < from {
				bodyEnd = from
			} else if bodyEnd > from && src[bodyEnd-1] == '\r' {
				bodyEnd--
			}
			return bodyEnd, lineStart + (len(line) - len(trimmed)) + len(id)
		}
		if lineEnd >= len(src) {
			break
		}
		lineStart = lineEnd + 1
	}
	return -1, -1
}
