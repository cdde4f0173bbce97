package classify

import (
	"strings"
)

// administrativeKeywords are leading keywords of statements that would
// corrupt a shared validation session.
var administrativeKeywords = map[string]bool{
	"begin":    true,
	"commit":   true,
	"rollback": true,
	"end":      true,
}

// prefilter applies the structural checks that need no engine. It returns
// the rejecting reason, or ReasonOK when the text should go on to the
// sandbox.
func prefilter(sql string) Reason {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return ReasonEmpty
	}

	body := strings.TrimSpace(stripComments(trimmed))
	if body == "" {
		return ReasonCommentOnly
	}
	if strings.Trim(body, "; \t\r\n") == "" {
		return ReasonSemicolonsOnly
	}

	lower := strings.ToLower(strings.TrimLeft(body, "; \t\r\n"))
	if strings.HasPrefix(lower, "vacuum") || administrativeKeywords[leadingWord(lower)] {
		return ReasonAdministrative
	}
	return ReasonOK
}

// stripComments removes -- line comments and /* */ block comments that are
// outside quotes. An unclosed block comment runs to the end.
func stripComments(s string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			b.WriteByte(' ')
			i += end + 3
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// leadingWord returns the initial run of letters of s.
func leadingWord(s string) string {
	i := 0
	for i < len(s) && (s[i] >= 'a' && s[i] <= 'z' || s[i] >= 'A' && s[i] <= 'Z') {
		i++
	}
	return s[:i]
}
