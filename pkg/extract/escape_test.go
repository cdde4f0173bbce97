package extract_test

import (
	"testing"

	"github.com/leapstack-labs/sqlmine/pkg/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnescape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no escapes", "SELECT 1", "SELECT 1"},
		{"simple", `a\nb\tc\\d`, "a\nb\tc\\d"},
		{"quotes", `\'x\' \"y\"`, `'x' "y"`},
		{"hex", `\x41\x62`, "Ab"},
		{"octal", `\101\0`, "A\x00"},
		{"unicode 4", `caf\u00e9`, "café"},
		{"unicode 8", `\U0001F600`, "\U0001F600"},
		{"unicode braces", `\u{1F600}`, "\U0001F600"},
		{"unknown escape kept", `\d+\q`, `\d+\q`},
		{"line continuation", "a\\\nb", "ab"},
		{"crlf continuation", "a\\\r\nb", "ab"},
		{"escape char", `\e[0m`, "\x1b[0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extract.Unescape(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnescapeMalformed(t *testing.T) {
	for _, input := range []string{`abc\`, `\x4`, `\xZZ`, `\uZZZZ`, `\u12`, `\u{12`, `\U0000`, `\UFFFFFFFF`} {
		_, err := extract.Unescape(input)
		assert.Error(t, err, input)
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"SELECT * FROM users",
		"SELECT 'a'\nFROM \"t\"",
		`C:\dir\file`,
		"tab\tand\rreturn",
		"trailing backslash \\",
		"unicode é 😀",
	}

	for _, s := range inputs {
		got, err := extract.Unescape(extract.Escape(s))
		require.NoError(t, err, s)
		assert.Equal(t, s, got)
	}
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `it\'s a \"test\"\n\\`, extract.Escape("it's a \"test\"\n\\"))
}
