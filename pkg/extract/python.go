package extract

import (
	"strings"

	"github.com/leapstack-labs/sqlmine/pkg/token"
)

// pythonExtractor handles generic-script sources. Newlines are plain
// whitespace and the whole file is tokenized.
type pythonExtractor struct{}

func (pythonExtractor) Language() Language { return Python }

// Tokenize scans the whole source left to right.
func (pythonExtractor) Tokenize(source string) ([]token.Token, error) {
	s := newScanner(source)
	for !s.eof() {
		c := s.cur()
		switch {
		case c == '#':
			s.skipLine()
		case c == '+':
			s.emitChar(token.ConcatOperator)
		case c == '\n' || isSpace(c):
			s.advance()
		case isQuote(c):
			if err := s.readPythonString(0); err != nil {
				return nil, err
			}
		case isLetter(c) || c == '_':
			prefix := pythonStringPrefix(s.src[s.pos:])
			switch {
			case prefix == "":
				s.readWord()
			case strings.ContainsAny(prefix, "rR"):
				if err := s.readPythonRawString(len(prefix)); err != nil {
					return nil, err
				}
			default:
				if err := s.readPythonString(len(prefix)); err != nil {
					return nil, err
				}
			}
		case isDigit(c):
			s.readWord()
		default:
			s.emitChar(token.Unknown)
		}
	}
	return s.tokens, nil
}

// Parse applies the conservative concatenation rule: a single identifier
// between two concatenations of literals becomes 'placeholder', anything
// else ends the candidate.
func (pythonExtractor) Parse(source string, tokens []token.Token) ([]string, error) {
	var candidates []string
	n := len(tokens)

	for i := 0; i < n; {
		if !tokens[i].Kind.IsString() {
			i++
			continue
		}

		var b strings.Builder
		if err := appendDecoded(&b, source, tokens[i]); err != nil {
			return nil, err
		}
		i++

	extend:
		for i < n {
			t := tokens[i]
			switch {
			case t.Kind.IsString():
				if err := appendDecoded(&b, source, t); err != nil {
					return nil, err
				}
				i++
			case t.Kind == token.ConcatOperator && i+1 < n && tokens[i+1].Kind.IsString():
				if err := appendDecoded(&b, source, tokens[i+1]); err != nil {
					return nil, err
				}
				i += 2
			case t.Kind == token.ConcatOperator && i+3 < n &&
				tokens[i+1].Kind == token.Identifier &&
				tokens[i+2].Kind == token.ConcatOperator &&
				tokens[i+3].Kind.IsString():
				b.WriteString("'placeholder'")
				if err := appendDecoded(&b, source, tokens[i+3]); err != nil {
					return nil, err
				}
				i += 4
			default:
				break extend
			}
		}

		if b.Len() > 0 {
			candidates = append(candidates, b.String())
		}
	}
	return candidates, nil
}

// pythonStringPrefix returns the string prefix (u, f, b, r, rb, fr, ...)
// when the input starts with one followed by a quote.
func pythonStringPrefix(rest string) string {
	for n := 1; n <= 2 && n < len(rest); n++ {
		if !isQuote(rest[n]) {
			continue
		}
		prefix := strings.ToLower(rest[:n])
		switch prefix {
		case "u", "f", "b", "r", "rb", "br", "fr", "rf":
			return rest[:n]
		}
		return ""
	}
	return ""
}

// readWord reads a run of letters, digits and underscores as an identifier.
func (s *scanner) readWord() {
	m := s.mark()
	for !s.eof() && isWordChar(s.cur()) {
		s.advance()
	}
	s.emit(token.Identifier, s.src[m.pos:s.pos], m)
}

// readPythonString reads a quoted string after a prefix of prefixLen bytes.
// Escapes are copied through as two raw characters. Triple-quoted bodies
// may span lines; their raw line breaks and quotes are stored escaped so the
// literal decodes back to the original text.
func (s *scanner) readPythonString(prefixLen int) error {
	m := s.mark()
	s.advanceN(prefixLen)
	q := s.cur()
	triple := s.peek(1) == q && s.peek(2) == q
	if triple {
		s.advanceN(3)
	} else {
		s.advance()
	}

	var b strings.Builder
	for {
		if s.eof() {
			return s.unterminated(m)
		}
		c := s.cur()
		if triple {
			if c == q && s.peek(1) == q && s.peek(2) == q {
				s.advanceN(3)
				break
			}
		} else if c == q {
			s.advance()
			break
		} else if c == '\n' {
			return s.unterminated(m)
		}

		if c == '\\' {
			if s.pos+1 >= len(s.src) {
				return s.unterminated(m)
			}
			b.WriteByte(c)
			b.WriteByte(s.peek(1))
			s.advanceN(2)
			continue
		}
		if triple {
			switch c {
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\'':
				b.WriteString(`\'`)
			case '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		} else {
			b.WriteByte(c)
		}
		s.advance()
	}

	s.emit(token.StringLiteral, b.String(), m)
	return nil
}

// readPythonRawString reads r"..." style strings. The body is kept verbatim
// and closes on the first matching quote that is not preceded by a
// backslash.
func (s *scanner) readPythonRawString(prefixLen int) error {
	m := s.mark()
	s.advanceN(prefixLen)
	q := s.cur()
	triple := s.peek(1) == q && s.peek(2) == q
	if triple {
		s.advanceN(3)
	} else {
		s.advance()
	}

	start := s.pos
	for {
		if s.eof() {
			return s.unterminated(m)
		}
		c := s.cur()
		if triple {
			if c == q && s.peek(1) == q && s.peek(2) == q {
				break
			}
		} else if c == q {
			break
		} else if c == '\n' {
			return s.unterminated(m)
		}
		if c == '\\' && s.pos+1 < len(s.src) {
			s.advanceN(2)
			continue
		}
		s.advance()
	}

	body := s.src[start:s.pos]
	if triple {
		s.advanceN(3)
	} else {
		s.advance()
	}
	s.emit(token.RawStringLiteral, body, m)
	return nil
}
