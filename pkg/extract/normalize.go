package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// boundParamRe matches {$name} / {name} interpolations, $name variables
	// with member or index access, and printf verbs.
	boundParamRe = regexp.MustCompile(`\{\$?[A-Za-z_][^{}]*\}|\$[A-Za-z_]\w*(?:->\w+|\[[^\]]*\])*|%[ds]`)

	// quotedTableRe matches a quoted bare identifier right after a table
	// keyword.
	quotedTableRe = regexp.MustCompile(`(?i)(\b(?:FROM|UPDATE|INTO|JOIN|TABLE(?:\s+IF\s+NOT\s+EXISTS)?)\s+)(['"])(\w+)(['"])`)
)

// normalizeTemplated rewrites a templated-script candidate into the sandbox
// dialect. Placeholder numbering continues from next and is shared by every
// substitution in the candidate.
func normalizeTemplated(candidate string, next int) string {
	s := strings.ReplaceAll(candidate, "`", "'")
	s = strings.ReplaceAll(s, ":", "")

	var b strings.Builder
	n, last := next, 0
	for _, loc := range boundParamRe.FindAllStringIndex(s, -1) {
		start, end := loc[0], loc[1]
		b.WriteString(s[last:start])
		last = end

		id := strconv.Itoa(n)
		n++
		switch s[start:end] {
		case "%d":
			b.WriteString("placeholder_digit" + id)
		case "%s":
			if quotedAt(s, start, end) {
				b.WriteString("placeholder_string" + id)
			} else {
				b.WriteString("'placeholder_string" + id + "'")
			}
		default:
			b.WriteString("placeholder" + id)
		}
	}
	b.WriteString(s[last:])
	s = b.String()

	return quotedTableRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := quotedTableRe.FindStringSubmatch(m)
		if parts[2] != parts[4] {
			return m
		}
		return parts[1] + parts[3]
	})
}

// quotedAt reports whether s[start:end] is enclosed in a matching pair of
// quotes.
func quotedAt(s string, start, end int) bool {
	if start == 0 || end >= len(s) {
		return false
	}
	q := s[start-1]
	return (q == '\'' || q == '"') && s[end] == q
}
