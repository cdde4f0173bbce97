package extract_test

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlmine/pkg/extract"
	"github.com/stretchr/testify/assert"
)

func TestPlausible(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"select", "SELECT 1", true},
		{"lowercase keyword", "delete from t", true},
		{"six characters", "DROP t", true},
		{"five characters", "DROP ", false},
		{"no interior space", "SELECT", false},
		{"only surrounding spaces", "  SELECT  ", false},
		{"no keyword", "hello world", false},
		{"keyword inside word", "SELECTED items", false},
		{"deny-list", "SELECT ALL", false},
		{"deny-list none", "SELECT NONE", false},
		{"deny-list delete", "DELETE ALL", false},
		{"deny-list is case-sensitive", "select all", true},
		{"length cap", "SELECT " + strings.Repeat("x", extract.MaxCandidateLength-7), false},
		{"just under cap", "SELECT " + strings.Repeat("x", extract.MaxCandidateLength-8), true},
		{"length counts characters", "SELECT " + strings.Repeat("表", 400), true},
		{"multibyte at cap", "SELECT " + strings.Repeat("表", extract.MaxCandidateLength-7), false},
		{"five multibyte characters", "é é é", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extract.Plausible(tt.candidate))
		})
	}
}

func TestPlausibleIsMonotonic(t *testing.T) {
	valid := "WITH a"
	assert.True(t, extract.Plausible(valid))

	// below six characters
	assert.False(t, extract.Plausible(valid[:5]))
	// without its only interior space
	assert.False(t, extract.Plausible(strings.Replace(valid, " ", "", 1)))
}

func TestContainsStatementKeyword(t *testing.T) {
	assert.True(t, extract.ContainsStatementKeyword("x; select y"))
	assert.True(t, extract.ContainsStatementKeyword("PRAGMA table_info(t)"))
	assert.False(t, extract.ContainsStatementKeyword("selection"))
	assert.False(t, extract.ContainsStatementKeyword(""))
}
