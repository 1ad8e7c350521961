package diag

import "rbsec/internal/source"

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// WithFixSuggestion appends a copy of fix.
func (d Diagnostic) WithFixSuggestion(fix Fix) Diagnostic {
	f := fix
	d.Fixes = append(d.Fixes, &f)
	return d
}
