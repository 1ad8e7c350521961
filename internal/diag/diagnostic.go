package diag

import (
	"rbsec/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []*Fix
	// Rule is the cop name ("Security/Open") for rule findings, empty otherwise.
	Rule string
}
