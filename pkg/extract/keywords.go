package extract

import (
	"regexp"
	"strings"
)

// StatementKeywords are the keywords that can begin a SQL statement. They
// anchor keyword windows and gate candidates before classification.
var StatementKeywords = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP", "WITH",
	"REPLACE", "MERGE", "TRUNCATE",
	"BEGIN", "COMMIT", "ROLLBACK", "SAVEPOINT", "RELEASE",
	"PRAGMA", "EXPLAIN", "ATTACH", "DETACH", "REINDEX", "ANALYZE", "VACUUM",
	"GRANT", "REVOKE",
}

// statementKeywordRe matches any statement keyword as a whole word.
var statementKeywordRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(StatementKeywords, "|") + `)\b`)

// tableKeywordSuffixRe matches text ending in a table-introducing keyword.
// An identifier concatenated right after one of them is substituted with a
// table placeholder.
var tableKeywordSuffixRe = regexp.MustCompile(`(?i)\b(?:FROM|UPDATE|INTO|JOIN|TABLE(?:\s+IF\s+NOT\s+EXISTS)?)\s*$`)

// ContainsStatementKeyword reports whether s contains a statement keyword
// as a whole word, case-insensitively.
func ContainsStatementKeyword(s string) bool {
	return statementKeywordRe.MatchString(s)
}

// nextStatementKeyword returns the offset of the first statement keyword at
// or after from, or -1.
func nextStatementKeyword(src string, from int) int {
	if from >= len(src) {
		return -1
	}
	loc := statementKeywordRe.FindStringIndex(src[from:])
	if loc == nil {
		return -1
	}
	return from + loc[0]
}

// endsWithTableKeyword reports whether the right-trimmed text ends with a
// table-introducing keyword as a whole word.
func endsWithTableKeyword(s string) bool {
	return tableKeywordSuffixRe.MatchString(s)
}
