package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps an engine error substring to a reason.
type Rule struct {
	Match  string `yaml:"match"`
	Reason Reason `yaml:"reason"`
}

// builtinRules is the error-message table for the bundled engines (SQLite,
// DuckDB, PostgreSQL). Matching is case-insensitive and the first match
// wins, so specific messages come before generic ones.
var builtinRules = []Rule{
	// transaction-bound statements the attempt transaction forbids
	{"cannot start a transaction within a transaction", ReasonSandboxLimitation},
	{"cannot commit - no transaction is active", ReasonSandboxLimitation},
	{"cannot rollback - no transaction is active", ReasonSandboxLimitation},
	{"cannot vacuum from within a transaction", ReasonSandboxLimitation},
	{"cannot change into wal mode from within a transaction", ReasonSandboxLimitation},
	{"safety level may not be changed inside a transaction", ReasonSandboxLimitation},
	{"cannot attach database within transaction", ReasonSandboxLimitation},
	{"cannot run inside a transaction block", ReasonSandboxLimitation},
	{"cannot be executed within a pipeline", ReasonSandboxLimitation},

	// provisional rejects
	{"no such function", ReasonUnsupportedFunction},
	{"function with name", ReasonUnsupportedFunction},
	{"no function matches", ReasonUnsupportedFunction},
	{"sqlstate 42883", ReasonUnsupportedFunction}, // postgres undefined_function
	{"no tables specified", ReasonNoTables},

	{"no such table", ReasonMissingObject},
	{"no such column", ReasonMissingObject},
	{"no such database", ReasonMissingObject},
	{"unknown database", ReasonMissingObject},
	{"no such index", ReasonMissingObject},
	{"no such module", ReasonMissingObject},
	{"no such trigger", ReasonMissingObject},
	{"no such view", ReasonMissingObject},
	{"no such savepoint", ReasonMissingObject},
	{"no such collation sequence", ReasonMissingObject},
	{"not found in from clause", ReasonMissingObject},
	{"catalog error", ReasonMissingObject},
	{"binder error", ReasonMissingObject},
	{"does not exist", ReasonMissingObject},

	{"already exists", ReasonDuplicateObject},

	{"incorrect number of bindings", ReasonBindingMismatch},
	{"missing argument with index", ReasonBindingMismatch},
	{"arguments, got", ReasonBindingMismatch},
	{"bind message supplies", ReasonBindingMismatch},
	{"could not determine data type of parameter", ReasonBindingMismatch},
	{"there is no parameter", ReasonBindingMismatch},
	{"prepared statement parameter", ReasonBindingMismatch},

	{"not authorized", ReasonPermission},
	{"permission denied", ReasonPermission},
	{"access denied", ReasonPermission},
	{"must be owner", ReasonPermission},

	{"right and full outer joins are not currently supported", ReasonDialectDifference},
	{"unknown table option", ReasonDialectDifference},
	{"not implemented", ReasonDialectDifference},

	{"0x00", ReasonNullCharacter},
	{"null character", ReasonNullCharacter},

	{"incomplete input", ReasonIncomplete},
	{"unterminated", ReasonIncomplete},
	{"syntax error", ReasonSyntax},
	{"unrecognized token", ReasonSyntax},
	{"parser error", ReasonSyntax},
}

// Taxonomy translates engine error messages into reasons.
type Taxonomy struct {
	rules []Rule
}

// DefaultTaxonomy returns the built-in table.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{rules: normalize(builtinRules)}
}

// WithOverrides returns a taxonomy consulting overrides before the built-in
// table.
func WithOverrides(overrides []Rule) (*Taxonomy, error) {
	for _, r := range overrides {
		if strings.TrimSpace(r.Match) == "" {
			return nil, fmt.Errorf("taxonomy rule has an empty match")
		}
		if !r.Reason.Valid() {
			return nil, fmt.Errorf("taxonomy rule %q: unknown reason %q", r.Match, r.Reason)
		}
	}
	rules := make([]Rule, 0, len(overrides)+len(builtinRules))
	rules = append(rules, overrides...)
	rules = append(rules, builtinRules...)
	return &Taxonomy{rules: normalize(rules)}, nil
}

// taxonomyFile is the YAML layout of an override file.
type taxonomyFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadTaxonomy reads override rules from a YAML file of the form
//
//	rules:
//	  - match: "no such collation"
//	    reason: missing_object
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy file %s: %w", path, err)
	}
	return WithOverrides(f.Rules)
}

// Translate returns the reason of the first rule matching message, or
// ReasonUnknown.
func (t *Taxonomy) Translate(message string) Reason {
	m := strings.ToLower(message)
	for _, r := range t.rules {
		if strings.Contains(m, r.Match) {
			return r.Reason
		}
	}
	return ReasonUnknown
}

// Rules returns a copy of the rules in match order.
func (t *Taxonomy) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

var defaultTaxonomy = DefaultTaxonomy()

// Translate maps message with the built-in table.
func Translate(message string) Reason {
	return defaultTaxonomy.Translate(message)
}

func normalize(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Match: strings.ToLower(r.Match), Reason: r.Reason}
	}
	return out
}
