// Package extract finds SQL candidates in host-language source text.
//
// Each supported host language has a tokenizer that turns source text into
// a token stream sensitive to string and comment syntax, and a
// reconstructor that folds string concatenation back into single candidate
// strings. The set of host languages is closed; For and ForPath dispatch to
// them.
package extract

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqlmine/pkg/token"
)

// Language identifies a host-language family.
type Language int

// Host-language families.
const (
	// Python is the generic-script family: whole-file scan, '+' concatenation.
	Python Language = iota
	// CFamily covers C, C++, Java, C#, Go, JavaScript, TypeScript, Kotlin,
	// Scala and Swift: keyword windows, '+' concatenation.
	CFamily
	// PHP is the templated-script family: keyword windows, '.' concatenation.
	PHP
)

var languageNames = map[Language]string{
	Python:  "python",
	CFamily: "cfamily",
	PHP:     "php",
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Language(%d)", int(l))
}

// Extractor is a paired tokenizer and candidate reconstructor.
type Extractor interface {
	Language() Language
	// Tokenize returns the tokens of source. It fails only with a
	// *ParsingError for an unterminated string literal.
	Tokenize(source string) ([]token.Token, error)
	// Parse reconstructs candidate strings from tokens of source. It fails
	// only with a *ParsingError for a literal that cannot be decoded.
	Parse(source string, tokens []token.Token) ([]string, error)
}

// extensions maps lowercase file extensions to their family.
var extensions = map[string]Language{
	".py": Python,

	".c": CFamily, ".h": CFamily,
	".cc": CFamily, ".cpp": CFamily, ".cxx": CFamily, ".hpp": CFamily, ".hh": CFamily,
	".java": CFamily, ".cs": CFamily, ".go": CFamily,
	".js": CFamily, ".jsx": CFamily, ".ts": CFamily, ".tsx": CFamily,
	".kt": CFamily, ".scala": CFamily, ".swift": CFamily,

	".php": PHP, ".phtml": PHP, ".inc": PHP,
}

// For returns the extractor of a language family.
func For(lang Language) Extractor {
	switch lang {
	case Python:
		return pythonExtractor{}
	case CFamily:
		return cfamilyExtractor{}
	case PHP:
		return phpExtractor{}
	default:
		panic(fmt.Sprintf("extract: unknown language %d", int(lang)))
	}
}

// LanguageOf returns the family handling path, by case-insensitive
// extension.
func LanguageOf(path string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// ForPath returns the extractor handling path. It returns an error wrapping
// ErrUnsupportedFileType for unknown extensions.
func ForPath(path string) (Extractor, error) {
	lang, ok := LanguageOf(path)
	if !ok {
		return nil, unsupportedFileType(filepath.Ext(path))
	}
	return For(lang), nil
}

// Extract tokenizes content and reconstructs its raw candidates.
func Extract(path, content string) ([]string, error) {
	ex, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	tokens, err := ex.Tokenize(content)
	if err != nil {
		return nil, err
	}
	return ex.Parse(content, tokens)
}

// Candidates returns the trimmed candidates of content that pass Plausible,
// in source order.
func Candidates(path, content string) ([]string, error) {
	raw, err := Extract(path, content)
	if err != nil {
		return nil, err
	}
	out := raw[:0]
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if Plausible(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Supported returns the handled extensions in sorted order.
func Supported() []string {
	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}
