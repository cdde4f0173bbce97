package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var errTrailingBackslash = errors.New("trailing backslash")

// simpleEscapes maps single-character escapes to their decoded value.
var simpleEscapes = map[byte]string{
	'n':  "\n",
	't':  "\t",
	'r':  "\r",
	'\\': "\\",
	'\'': "'",
	'"':  "\"",
	'a':  "\a",
	'b':  "\b",
	'f':  "\f",
	'v':  "\v",
	'e':  "\x1b",
}

// Unescape decodes the backslash escapes of a StringLiteral body. The
// accepted set is the union of what the supported host languages use;
// unknown escapes are kept as the two raw characters.
func Unescape(s string) (string, error) {
	if strings.IndexByte(s, '\\') < 0 {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", errTrailingBackslash
		}
		next := s[i+1]
		if v, ok := simpleEscapes[next]; ok {
			b.WriteString(v)
			i++
			continue
		}
		switch {
		case next == '\n':
			// line continuation
			i++
		case next == '\r' && i+2 < len(s) && s[i+2] == '\n':
			i += 2
		case next >= '0' && next <= '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i+1:j], 8, 32)
			writeCodepoint(&b, rune(v))
			i = j - 1
		case next == 'x':
			v, n, err := readHex(s[i+2:], 2, 2)
			if err != nil {
				return "", fmt.Errorf(`\x: %w`, err)
			}
			b.WriteByte(byte(v))
			i += 1 + n
		case next == 'u' && i+2 < len(s) && s[i+2] == '{':
			end := strings.IndexByte(s[i+3:], '}')
			if end < 0 {
				return "", errors.New(`\u{: missing closing brace`)
			}
			v, _, err := readHex(s[i+3:i+3+end], 1, 6)
			if err != nil {
				return "", fmt.Errorf(`\u{}: %w`, err)
			}
			writeCodepoint(&b, rune(v))
			i += 3 + end
		case next == 'u':
			v, n, err := readHex(s[i+2:], 4, 4)
			if err != nil {
				return "", fmt.Errorf(`\u: %w`, err)
			}
			writeCodepoint(&b, rune(v))
			i += 1 + n
		case next == 'U':
			v, n, err := readHex(s[i+2:], 8, 8)
			if err != nil {
				return "", fmt.Errorf(`\U: %w`, err)
			}
			if v > utf8.MaxRune {
				return "", fmt.Errorf(`\U: code point %#x out of range`, v)
			}
			writeCodepoint(&b, rune(v))
			i += 1 + n
		default:
			b.WriteByte(c)
			b.WriteByte(next)
			i++
		}
	}
	return b.String(), nil
}

// readHex parses between min and max hex digits from the start of s.
func readHex(s string, min, max int) (uint64, int, error) {
	n := 0
	for n < len(s) && n < max && isHexDigit(s[n]) {
		n++
	}
	if n < min {
		return 0, 0, fmt.Errorf("expected %d hex digits", min)
	}
	v, err := strconv.ParseUint(s[:n], 16, 32)
	if err != nil {
		return 0, 0, err
	}
	return v, n, nil
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F'
}

func writeCodepoint(b *strings.Builder, r rune) {
	if r < utf8.RuneSelf {
		b.WriteByte(byte(r))
		return
	}
	b.WriteRune(r)
}

// Escape is the inverse of Unescape for text that is stored in a
// StringLiteral: backslashes, quotes and line breaks are escaped so that
// Unescape(Escape(s)) == s.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
