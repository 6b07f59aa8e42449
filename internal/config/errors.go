// internal/config/errors.go
//
// Configuration error type and fatal-issue carrier.
//
// Context
// -------
// Every failure inside the resolution engine is one error kind, `*Error`,
// carrying a human-readable message plus a machine-checkable `Kind` tag.
// Callers match on the tag (`errors.As` + `Kind`) rather than on message
// text, so wording can evolve without breaking anything.
//
// One condition is deliberately *not* an error: the retired global
// `url-prefix` override.  It is returned as a `FatalIssue` so the caller,
// not the engine, performs the process exit.  This keeps the resolver a
// pure function of its input document and therefore unit-testable.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package config

import "fmt"

//
// Kind tags
//

// Kind classifies a configuration error for machine checks.
type Kind int

const (
	// KindGrammar marks malformed section headers.
	KindGrammar Kind = iota + 1
	// KindStructure marks duplicate sections or subsections.
	KindStructure
	// KindSchema marks missing required keys or coarse-type mismatches.
	KindSchema
	// KindConversion marks values that cannot be coerced to their declared
	// semantic type, or that violate a declared constraint.
	KindConversion
	// KindDomain marks cross-field invariant violations, e.g. a blank
	// connection subname or events outliving reports.
	KindDomain
	// KindInternal marks violated engine preconditions.  These indicate a
	// bug in the resolution pipeline, not an operator mistake.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindGrammar:
		return "grammar"
	case KindStructure:
		return "structure"
	case KindSchema:
		return "schema"
	case KindConversion:
		return "conversion"
	case KindDomain:
		return "domain"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

//
// Error
//

// Error is the single configuration error type.  Msg is operator-facing.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// newErrorf builds an *Error with a formatted message.
func newErrorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

//
// Fatal issues
//

// FatalIssue describes a configuration condition that must terminate the
// process after resolution returns.  The engine only reports it; acting on
// it (printing guidance, exiting non-zero) is the caller's job.
type FatalIssue struct {
	Setting  string // offending key, e.g. "global/url-prefix"
	Guidance string // operator-facing remediation text
}
