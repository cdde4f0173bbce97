package extract

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlmine/pkg/token"
)

// appendDecoded appends the decoded value of a string-bearing token to b.
// Raw literals are used verbatim.
func appendDecoded(b *strings.Builder, source string, t token.Token) error {
	if t.Kind == token.RawStringLiteral {
		b.WriteString(t.Literal)
		return nil
	}
	v, err := Unescape(t.Literal)
	if err != nil {
		return newParsingError(source, t.Pos.Line, t.Pos.Column, t.Pos.SourceIndex-1, errMalformedEscape, err)
	}
	b.WriteString(v)
	return nil
}

// postProcess rewrites a finished candidate. next is the first unused
// generic placeholder number of that candidate.
type postProcess func(candidate string, next int) string

// parseSubstituting reconstructs candidates for the keyword-windowed
// families. An identifier run concatenated into a literal becomes tblN when
// the text so far ends with a table keyword and placeholderN otherwise.
// Newline runs inside an extension fold into a single "\n".
func parseSubstituting(source string, tokens []token.Token, post postProcess) ([]string, error) {
	var candidates []string
	n := len(tokens)

	for i := 0; i < n; {
		if !tokens[i].Kind.IsString() {
			i++
			continue
		}

		var b strings.Builder
		tables, placeholders := 0, 0
		if err := appendDecoded(&b, source, tokens[i]); err != nil {
			return nil, err
		}
		i++

	extend:
		for i < n {
			t := tokens[i]
			switch t.Kind {
			case token.StringLiteral, token.RawStringLiteral:
				if err := appendDecoded(&b, source, t); err != nil {
					return nil, err
				}
				i++

			case token.Newline:
				j := skipNewlines(tokens, i)
				if j >= n || !(tokens[j].Kind.IsString() || tokens[j].Kind == token.ConcatOperator) {
					break extend
				}
				b.WriteByte('\n')
				i = j

			case token.ConcatOperator:
				j := skipNewlines(tokens, i+1)
				folded := j > i+1
				switch {
				case j < n && tokens[j].Kind.IsString():
					if folded {
						b.WriteByte('\n')
					}
					if err := appendDecoded(&b, source, tokens[j]); err != nil {
						return nil, err
					}
					i = j + 1
				case j < n && tokens[j].Kind == token.Identifier:
					for j < n && tokens[j].Kind == token.Identifier {
						j++
					}
					if folded {
						b.WriteByte('\n')
					}
					if endsWithTableKeyword(b.String()) {
						tables++
						b.WriteString("tbl" + strconv.Itoa(tables))
					} else {
						placeholders++
						b.WriteString("placeholder" + strconv.Itoa(placeholders))
					}
					i = j
				default:
					break extend
				}

			default:
				break extend
			}
		}

		if b.Len() == 0 {
			continue
		}
		c := b.String()
		if post != nil {
			c = post(c, placeholders+1)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// skipNewlines returns the index of the first non-Newline token at or after i.
func skipNewlines(tokens []token.Token, i int) int {
	for i < len(tokens) && tokens[i].Kind == token.Newline {
		i++
	}
	return i
}
