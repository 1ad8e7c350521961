package diag

import (
	"fmt"

	"rbsec/internal/source"
)

// FixKind classifies a fix for UI listings.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
	FixKindRefactorRewrite
	FixKindSourceAction
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactor:
		return "refactor"
	case FixKindRefactorRewrite:
		return "refactor.rewrite"
	case FixKindSourceAction:
		return "source"
	}
	return "unknown"
}

// FixApplicability is the confidence level of a fix.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// TextEdit replaces Span with NewText. A non-empty OldText must match the
// current content of Span or the edit is rejected.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixBuildContext is handed to lazy fix builders.
type FixBuildContext struct {
	FileSet *source.FileSet
}

// FixThunk builds a fix on demand.
type FixThunk interface {
	Build(ctx FixBuildContext) (Fix, error)
}

// FixThunkFunc adapts a function to FixThunk.
type FixThunkFunc func(ctx FixBuildContext) (Fix, error)

func (f FixThunkFunc) Build(ctx FixBuildContext) (Fix, error) { return f(ctx) }

type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	// RequiresAll marks fixes that only make sense when applied together
	// with every other fix of the run.
	RequiresAll bool
	Edits       []TextEdit
	Thunk       FixThunk
}

// Resolve expands a lazy fix. Eager fixes are returned as a copy.
func (f *Fix) Resolve(ctx FixBuildContext) (Fix, error) {
	if f == nil {
		return Fix{}, fmt.Errorf("nil fix")
	}
	if f.Thunk == nil || len(f.Edits) > 0 {
		out := *f
		out.Edits = append([]TextEdit(nil), f.Edits...)
		out.Thunk = nil
		return out, nil
	}
	built, err := f.Thunk.Build(ctx)
	if err != nil {
		return Fix{}, fmt.Errorf("fix %q: %w", f.Title, err)
	}
	// metadata from the declaring side wins when the builder left it empty
	if built.ID == "" {
		built.ID = f.ID
	}
	if built.Title == "" {
		built.Title = f.Title
	}
	built.IsPreferred = built.IsPreferred || f.IsPreferred
	built.Thunk = nil
	return built, nil
}

// MaterializeFixes resolves every fix in order; the first failure aborts.
func MaterializeFixes(ctx FixBuildContext, fixes []*Fix) ([]Fix, error) {
	out := make([]Fix, 0, len(fixes))
	for _, f := range fixes {
		resolved, err := f.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}
