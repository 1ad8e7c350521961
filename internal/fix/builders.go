package fix

import (
	"rbsec/internal/diag"
	"rbsec/internal/source"
)

// Option mutates fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// Preferred marks fix as preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets stable identifier for fix.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func applyOptions(f diag.Fix, opts []Option) diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// ReplaceSpan replaces text covered by span with newText. A non-empty
// expect guards the edit against stale content.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits: []diag.TextEdit{{
			Span:    span,
			NewText: newText,
			OldText: expect,
		}},
	}
	return applyOptions(fix, opts)
}

// Lazy creates a fix whose edits are built by thunk when the fix is
// materialised, for edits that need the file text.
func Lazy(title string, thunk diag.FixThunk, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Thunk:         thunk,
	}
	return applyOptions(fix, opts)
}
