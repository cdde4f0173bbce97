package extract

import (
	"strings"

	"github.com/leapstack-labs/sqlmine/pkg/token"
)

// cfamilyExtractor handles C-family sources (C, C++, Java, C#, Go,
// JavaScript, TypeScript, Kotlin, Scala, Swift).
type cfamilyExtractor struct{}

var cfamilySyntax = &syntax{
	lineComments: []string{"//"},
	concat:       '+',
	backtickRaw:  true,
	verbatimAt:   true,
	isIdentStart: func(ch byte) bool { return isLetter(ch) || ch == '_' || ch == '$' },
	readIdent:    readMemberIdent,
}

func (cfamilyExtractor) Language() Language { return CFamily }

// Tokenize scans the keyword windows of source.
func (cfamilyExtractor) Tokenize(source string) ([]token.Token, error) {
	return tokenizeWindows(source, cfamilySyntax)
}

// Parse reconstructs candidates, substituting table or generic placeholders
// for concatenated identifiers.
func (cfamilyExtractor) Parse(source string, tokens []token.Token) ([]string, error) {
	return parseSubstituting(source, tokens, nil)
}

// readMemberIdent reads a qualified member-access expression such as
// this.db, row$1 or cols[0]. A bracket group is only taken when it closes on
// the same line without containing a quote, so map["k"] stops before '['.
func readMemberIdent(s *scanner) {
	m := s.mark()
	for !s.eof() {
		c := s.cur()
		switch {
		case isWordChar(c) || c == '$':
			s.advance()
		case c == '.' && (isLetter(s.peek(1)) || s.peek(1) == '_' || s.peek(1) == '$'):
			s.advance()
		case c == '[':
			end := plainBracketEnd(s.src[s.pos:])
			if end < 0 {
				s.emit(token.Identifier, s.src[m.pos:s.pos], m)
				return
			}
			s.advanceN(end + 1)
		default:
			s.emit(token.Identifier, s.src[m.pos:s.pos], m)
			return
		}
	}
	s.emit(token.Identifier, s.src[m.pos:s.pos], m)
}

// plainBracketEnd returns the index of the ']' closing the '[' at rest[0],
// or -1 when the group spans lines, nests, or contains quotes.
func plainBracketEnd(rest string) int {
	end := strings.IndexAny(rest[1:], "]\n\"'`[")
	if end < 0 || rest[1+end] != ']' {
		return -1
	}
	return 1 + end
}
