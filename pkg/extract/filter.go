package extract

import (
	"strings"
	"unicode/utf8"
)

// MaxCandidateLength is the exclusive upper bound on candidate length.
const MaxCandidateLength = 1000

// minCandidateLength is the exclusive lower bound on candidate length.
const minCandidateLength = 5

// denied are valid but useless statements, compared case-sensitively.
var denied = map[string]struct{}{
	"SELECT ALL":  {},
	"DELETE ALL":  {},
	"SELECT NONE": {},
}

// Plausible reports whether a reconstructed candidate is worth handing to
// the classifier: longer than 5 and shorter than MaxCandidateLength
// characters, with an interior space and a statement keyword, and not on
// the deny-list.
func Plausible(candidate string) bool {
	n := utf8.RuneCountInString(candidate)
	if n <= minCandidateLength || n >= MaxCandidateLength {
		return false
	}
	if !strings.Contains(strings.TrimSpace(candidate), " ") {
		return false
	}
	if _, ok := denied[candidate]; ok {
		return false
	}
	return ContainsStatementKeyword(candidate)
}
