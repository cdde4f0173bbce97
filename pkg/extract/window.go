package extract

import (
	"errors"

	"github.com/leapstack-labs/sqlmine/pkg/token"
)

// syntax describes the lexical rules of a keyword-windowed host language.
type syntax struct {
	lineComments []string
	concat       byte
	// multilineStrings allows quoted strings to span lines.
	multilineStrings bool
	// backtickRaw makes `...` a raw string literal.
	backtickRaw bool
	// verbatimAt makes @"..." a raw string literal with "" kept verbatim.
	verbatimAt bool
	// heredoc enables <<<ID ... ID blocks.
	heredoc bool
	// readIdent reads one identifier starting at the cursor.
	readIdent func(s *scanner)
	// isIdentStart reports whether ch can begin an identifier.
	isIdentStart func(ch byte) bool
}

// errBoundary signals that scanOne consumed a statement boundary.
var errBoundary = errors.New("statement boundary")

// tokenizeWindows tokenizes only the windows anchored on statement keywords.
//
// Text between windows is skimmed silently so that a window never starts in
// the middle of a string literal or block comment; a window whose line start
// falls inside such a construct starts at the construct instead (a block
// comment is then skipped, so the window effectively starts after it).
func tokenizeWindows(source string, syn *syntax) ([]token.Token, error) {
	s := newScanner(source)
	for !s.eof() {
		kw := nextStatementKeyword(source, s.pos)
		if kw < 0 {
			break
		}
		lineStart := kw
		for lineStart > s.pos && source[lineStart-1] != '\n' {
			lineStart--
		}
		s.skimTo(lineStart, syn)

		for !s.eof() {
			err := s.scanOne(syn)
			if errors.Is(err, errBoundary) {
				break
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return s.tokens, nil
}

// skimTo advances silently to target, stopping early at the start of any
// lexical element that straddles target.
func (s *scanner) skimTo(target int, syn *syntax) {
	s.silent = true
	defer func() { s.silent = false }()

	for s.pos < target {
		m := s.mark()
		err := s.scanOne(syn)
		if err != nil && !errors.Is(err, errBoundary) {
			// Unbalanced quotes outside a window are not our concern.
			s.reset(m)
			s.advanceTo(target)
			return
		}
		if s.pos > target {
			s.reset(m)
			return
		}
	}
}

// scanOne consumes one lexical element: a token, a comment or a single
// whitespace character. It returns errBoundary after consuming a statement
// boundary character, which is emitted as an Unknown token.
func (s *scanner) scanOne(syn *syntax) error {
	c := s.cur()

	for _, lc := range syn.lineComments {
		if s.hasPrefix(lc) {
			s.skipLine()
			return nil
		}
	}

	switch {
	case c == '/' && s.peek(1) == '*':
		s.skipBlockComment()
	case c == '\n':
		s.emitChar(token.Newline)
	case isSpace(c):
		s.advance()
	case c == syn.concat:
		s.emitChar(token.ConcatOperator)
	case c == ';' || c == '{' || c == '}':
		s.emitChar(token.Unknown)
		return errBoundary
	case isQuote(c):
		return s.readQuoted(syn.multilineStrings)
	case c == '`' && syn.backtickRaw:
		return s.readDelimitedRaw('`')
	case c == '@' && syn.verbatimAt && s.peek(1) == '"':
		return s.readVerbatim()
	case c == '<' && syn.heredoc && s.hasPrefix("<<<"):
		if ok, err := s.readHeredoc(); ok || err != nil {
			return err
		}
		s.emitChar(token.Unknown)
	case syn.isIdentStart(c):
		syn.readIdent(s)
	case isDigit(c):
		s.readNumber()
	default:
		s.emitChar(token.Unknown)
	}
	return nil
}

// readQuoted reads a '...' or "..." string, copying escapes through as two
// raw characters.
func (s *scanner) readQuoted(multiline bool) error {
	m := s.mark()
	q := s.cur()
	s.advance()
	start := s.pos
	for {
		if s.eof() {
			return s.unterminated(m)
		}
		c := s.cur()
		if c == q {
			break
		}
		if c == '\n' && !multiline {
			return s.unterminated(m)
		}
		if c == '\\' {
			if s.pos+1 >= len(s.src) {
				return s.unterminated(m)
			}
			s.advanceN(2)
			continue
		}
		s.advance()
	}
	body := s.src[start:s.pos]
	s.advance()
	s.emit(token.StringLiteral, body, m)
	return nil
}

// readDelimitedRaw reads a raw string closed by the first q.
func (s *scanner) readDelimitedRaw(q byte) error {
	m := s.mark()
	s.advance()
	start := s.pos
	for !s.eof() && s.cur() != q {
		s.advance()
	}
	if s.eof() {
		return s.unterminated(m)
	}
	body := s.src[start:s.pos]
	s.advance()
	s.emit(token.RawStringLiteral, body, m)
	return nil
}

// readVerbatim reads a C# @"..." string in which "" stands for a quote.
func (s *scanner) readVerbatim() error {
	m := s.mark()
	s.advanceN(2)
	start := s.pos
	for {
		if s.eof() {
			return s.unterminated(m)
		}
		if s.cur() == '"' {
			if s.peek(1) != '"' {
				break
			}
			s.advance()
		}
		s.advance()
	}
	body := s.src[start:s.pos]
	s.advance()
	s.emit(token.RawStringLiteral, body, m)
	return nil
}

// readNumber reads a numeric literal, including a decimal part, as an
// identifier-like token.
func (s *scanner) readNumber() {
	m := s.mark()
	for !s.eof() && (isWordChar(s.cur()) || s.cur() == '.' && isDigit(s.peek(1))) {
		s.advance()
	}
	s.emit(token.Identifier, s.src[m.pos:s.pos], m)
}
