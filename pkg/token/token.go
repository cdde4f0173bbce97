// Package token defines the tokens produced by the host-language tokenizers.
//
// The token set is intentionally tiny: tokenizers only need enough fidelity
// to find string literals, the operators that concatenate them, and the
// identifiers interposed between them.
package token

import "fmt"

// Kind represents the kind of a lexical token.
type Kind int8

const (
	// Unknown is any single non-whitespace character no other rule matched.
	Unknown Kind = iota
	// Identifier is a run of identifier characters, including any
	// language-specific member-access characters.
	Identifier
	// StringLiteral holds the escaped body of a quoted string.
	StringLiteral
	// RawStringLiteral holds a string body that must be used verbatim.
	RawStringLiteral
	// ConcatOperator is the host language's string concatenation operator.
	ConcatOperator
	// Newline is an explicit line break (only emitted by some tokenizers).
	Newline
)

var kindNames = map[Kind]string{
	Unknown:          "Unknown",
	Identifier:       "Identifier",
	StringLiteral:    "StringLiteral",
	RawStringLiteral: "RawStringLiteral",
	ConcatOperator:   "ConcatOperator",
	Newline:          "Newline",
}

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsString returns true for kinds that carry string content.
func (k Kind) IsString() bool {
	return k == StringLiteral || k == RawStringLiteral
}

// Token is an immutable lexical token with position information.
type Token struct {
	Kind    Kind
	Literal string
	Pos     Position
}

// New creates a token.
func New(kind Kind, literal string, pos Position) Token {
	return Token{Kind: kind, Literal: literal, Pos: pos}
}

// String renders the token for debugging and test failure output.
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Literal, t.Pos.Line, t.Pos.Column)
}
