package security

import (
	"fmt"

	"rbsec/internal/cop"
	"rbsec/internal/diag"
	"rbsec/internal/fix"
	"rbsec/internal/source"
)

// Message is the text of every Security/Open offense.
const Message = "The use of `Kernel#open` is a serious security risk."

const fileOpen = "File.open"

// emit reports the offense on the method name token only.
func emit(site *cop.CallSite, shape Shape, sev diag.Severity, r cop.Reporter) {
	o := cop.Offense{
		Span:     site.NameSpan,
		Message:  Message,
		Severity: sev,
		Code:     diag.CopSecurityOpen,
	}
	if f := fileOpenFix(site, shape); f != nil {
		o.Fixes = []*diag.Fix{f}
	}
	r.Offense(o)
}

// fileOpenFix предлагает File.open только для литеральных путей.
func fileOpenFix(site *cop.CallSite, shape Shape) *diag.Fix {
	if shape != SafeLiteral && shape != PrefixedInterpolated {
		return nil
	}
	id := fixID(site.NameSpan)
	opts := []fix.Option{
		fix.WithID(id),
		fix.WithApplicability(diag.FixApplicabilityManualReview),
	}
	if site.Receiver.Kind == cop.ReceiverNone {
		f := fix.ReplaceSpan("use File.open", site.NameSpan, fileOpen, openMethod, opts...)
		return &f
	}
	// "Kernel.open", "::Kernel.open", "Kernel::open": the exact text is read
	// when the fix is materialised
	span := site.Receiver.Span.Cover(site.NameSpan)
	f := fix.Lazy("use File.open", qualifiedThunk(id, span), opts...)
	return &f
}

// fixID names the fix by the offset of the method name, so every offense in
// a file gets its own id for fix --id.
func fixID(name source.Span) string {
	return fmt.Sprintf("Security/Open/file-open@%d", name.Start)
}

func qualifiedThunk(id string, span source.Span) diag.FixThunk {
	return diag.FixThunkFunc(func(ctx diag.FixBuildContext) (diag.Fix, error) {
		if ctx.FileSet == nil {
			return diag.Fix{}, fmt.Errorf("no file set")
		}
		file := ctx.FileSet.Get(span.File)
		if file == nil {
			return diag.Fix{}, fmt.Errorf("file %d not loaded", span.File)
		}
		return fix.ReplaceSpan("use File.open", span, fileOpen, file.Text(span),
			fix.WithID(id),
			fix.WithApplicability(diag.FixApplicabilityManualReview),
		), nil
	})
}
