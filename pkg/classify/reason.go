package classify

// Reason is the outcome class behind a verdict.
type Reason string

// Reason codes. The comment on each accepting reason explains what the
// engine error tells us about the text.
const (
	ReasonOK Reason = "ok"

	// Pre-filter rejections.
	ReasonEmpty          Reason = "empty"
	ReasonCommentOnly    Reason = "comment_only"
	ReasonSemicolonsOnly Reason = "semicolons_only"
	ReasonAdministrative Reason = "administrative"
	ReasonNullCharacter  Reason = "null_character"

	// ReasonDialectParse is a rejection by the strict-mode dialect parser.
	ReasonDialectParse Reason = "dialect_parse"

	// ReasonMissingObject: valid SQL naming a table, column or other object
	// the empty sandbox lacks.
	ReasonMissingObject Reason = "missing_object"
	// ReasonDuplicateObject: valid SQL creating something that exists.
	ReasonDuplicateObject Reason = "duplicate_object"
	// ReasonBindingMismatch: valid SQL with bound parameters left unbound.
	ReasonBindingMismatch Reason = "binding_mismatch"
	// ReasonPermission: valid SQL the sandbox user may not run.
	ReasonPermission Reason = "permission"
	// ReasonDialectDifference: valid SQL in another dialect.
	ReasonDialectDifference Reason = "dialect_difference"
	// ReasonSandboxLimitation: valid SQL the sandbox cannot run inside its
	// isolation transaction.
	ReasonSandboxLimitation Reason = "sandbox_limitation"

	ReasonSyntax     Reason = "syntax"
	ReasonIncomplete Reason = "incomplete"
	// ReasonUnsupportedFunction is provisional: it may become an accept once
	// concatenation functions are resolved.
	ReasonUnsupportedFunction Reason = "unsupported_function"
	// ReasonNoTables is provisional for the same reason.
	ReasonNoTables Reason = "no_tables"

	// ReasonUnknown is an engine error outside the taxonomy.
	ReasonUnknown Reason = "unknown"
	// ReasonSandboxFailure is a sandbox malfunction unrelated to the text.
	ReasonSandboxFailure Reason = "sandbox_failure"
)

var accepting = map[Reason]bool{
	ReasonOK:                true,
	ReasonMissingObject:     true,
	ReasonDuplicateObject:   true,
	ReasonBindingMismatch:   true,
	ReasonPermission:        true,
	ReasonDialectDifference: true,
	ReasonSandboxLimitation: true,
}

var known = map[Reason]bool{
	ReasonOK: true, ReasonEmpty: true, ReasonCommentOnly: true, ReasonSemicolonsOnly: true,
	ReasonAdministrative: true, ReasonNullCharacter: true, ReasonDialectParse: true,
	ReasonMissingObject: true, ReasonDuplicateObject: true, ReasonBindingMismatch: true,
	ReasonPermission: true, ReasonDialectDifference: true, ReasonSandboxLimitation: true,
	ReasonSyntax: true, ReasonIncomplete: true, ReasonUnsupportedFunction: true,
	ReasonNoTables: true, ReasonUnknown: true, ReasonSandboxFailure: true,
}

// Accepted reports whether text classified with r is real SQL.
func (r Reason) Accepted() bool {
	return accepting[r]
}

// Valid reports whether r is a known reason code.
func (r Reason) Valid() bool {
	return known[r]
}

func (r Reason) String() string {
	return string(r)
}
