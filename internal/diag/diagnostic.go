package diag

import "fmt"

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer    Stage = "lexer"
	StageParser   Stage = "parser"
	StageResolver Stage = "resolver"
	StageTypes    Stage = "typecheck"
	StageLowering Stage = "lowering"
	StageCodegen  Stage = "codegen"
	StageBuild    Stage = "build"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Kind is the user-facing error family printed in diagnostic lines.
type Kind string

const (
	KindLex     Kind = "LexError"
	KindParse   Kind = "ParseError"
	KindName    Kind = "NameError"
	KindType    Kind = "TypeError"
	KindCodegen Kind = "CodegenError"
	KindBuild   Kind = "BuildError"
	KindIo      Kind = "IoError"
)

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// Lexer errors
	CodeLexUnterminatedString Code = "LEX_UNTERMINATED_STRING"
	CodeLexInvalidEscape      Code = "LEX_INVALID_ESCAPE"
	CodeLexUnexpectedChar     Code = "LEX_UNEXPECTED_CHAR"

	// Parser errors
	CodeParseUnexpectedToken Code = "PARSE_UNEXPECTED_TOKEN"
	CodeParseReservedKeyword Code = "PARSE_RESERVED_KEYWORD"
	CodeParseBadAssignTarget Code = "PARSE_BAD_ASSIGN_TARGET"

	// Resolver errors
	CodeNameUndefined      Code = "NAME_UNDEFINED"
	CodeNameDuplicate      Code = "NAME_DUPLICATE_DECLARATION"
	CodeNameUsedBeforeDecl Code = "NAME_USED_BEFORE_DECLARATION"

	// Type checker errors
	CodeTypeMismatch            Code = "TYPE_MISMATCH"
	CodeTypeArityMismatch       Code = "TYPE_ARITY_MISMATCH"
	CodeTypeNotCallable         Code = "TYPE_NOT_CALLABLE"
	CodeTypeImmutableAssignment Code = "TYPE_IMMUTABLE_ASSIGNMENT"
	CodeTypeUnknownType         Code = "TYPE_UNKNOWN_TYPE"

	// Lowering / codegen errors
	CodeGenNonConstantGlobal Code = "CODEGEN_NON_CONSTANT_GLOBAL"
	CodeGenMissingMain       Code = "CODEGEN_MISSING_MAIN"
	CodeGenTooManyParams     Code = "CODEGEN_TOO_MANY_PARAMS"

	// Build errors
	CodeBuildToolchainFailure Code = "BUILD_TOOLCHAIN_FAILURE"
	CodeBuildToolchainMissing Code = "BUILD_TOOLCHAIN_MISSING"

	// Filesystem errors
	CodeIoFailure Code = "IO_FAILURE"
)

// Span represents a location in source code.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid returns true if the span has valid location information.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Kind     Kind
	Code     Code
	Message  string
	Span     Span
	Notes    []string
	Help     string
}

// Line renders the diagnostic in the one-line form
// <file>:<line>:<col>: <Kind>: <message>.
func (d Diagnostic) Line() string {
	return fmt.Sprintf("%s: %s: %s", d.Span.String(), d.Kind, d.Message)
}

// IsError reports whether the diagnostic blocks artifact production.
func (d Diagnostic) IsError() bool {
	return d.Severity == "" || d.Severity == SeverityError
}

// WithNote returns a copy of the diagnostic with an extra note attached.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp returns a copy of the diagnostic with help text attached.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// HasErrors reports whether any diagnostic in the slice is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	return false
}
