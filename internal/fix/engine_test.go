package fix

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

func loadTemp(t *testing.T, name, content string) (*source.FileSet, source.FileID, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := source.NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return fs, id, path
}

// spanOf returns the span of the n-th (0-based) occurrence of needle.
func spanOf(t *testing.T, fs *source.FileSet, id source.FileID, needle string, n int) source.Span {
	t.Helper()
	text := string(fs.Get(id).Content)
	off := 0
	for i := 0; ; i++ {
		idx := strings.Index(text[off:], needle)
		if idx < 0 {
			t.Fatalf("%q occurrence %d not found", needle, n)
		}
		if i == n {
			start := uint32(off + idx)
			return source.Span{File: id, Start: start, End: start + uint32(len(needle))}
		}
		off += idx + len(needle)
	}
}

func openDiag(span source.Span, fixes ...diag.Fix) diag.Diagnostic {
	d := diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.CopSecurityOpen,
		Message:  "The use of `Kernel#open` is a serious security risk.",
		Primary:  span,
		Rule:     "Security/Open",
	}
	for i := range fixes {
		f := fixes[i]
		d.Fixes = append(d.Fixes, &f)
	}
	return d
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func TestGatherCandidatesSkipsDuplicateFixIDs(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rb", []byte("open 'x'"))
	span := source.Span{File: fileID, Start: 0, End: 4}

	diagnostics := []diag.Diagnostic{openDiag(span,
		ReplaceSpan("use File.open", span, "File.open", "open", WithID("fix-duplicate")),
		ReplaceSpan("use File.open again", span, "File.open", "open", WithID("fix-duplicate")),
	)}

	candidates, skips := gatherCandidates(diag.FixBuildContext{FileSet: fs}, diagnostics, "")
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(skips) != 1 || skips[0].Reason != "duplicate fix id" {
		t.Fatalf("expected one duplicate skip, got %+v", skips)
	}
}

func TestGatherCandidatesFiltersRule(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rb", []byte("open 'x'"))
	span := source.Span{File: fileID, Start: 0, End: 4}

	d := openDiag(span, ReplaceSpan("use File.open", span, "File.open", "open"))
	other := d
	other.Rule = "Security/Eval"

	candidates, _ := gatherCandidates(diag.FixBuildContext{FileSet: fs}, []diag.Diagnostic{d, other}, "Security/Open")
	if len(candidates) != 1 || candidates[0].diag.Rule != "Security/Open" {
		t.Fatalf("expected only the Security/Open candidate, got %+v", candidates)
	}
}

func TestApplyOnceWritesFile(t *testing.T) {
	fs, id, path := loadTemp(t, "a.rb", "open 'a'\nopen 'b'\n")
	first := spanOf(t, fs, id, "open", 0)
	second := spanOf(t, fs, id, "open", 1)

	diags := []diag.Diagnostic{
		openDiag(second, ReplaceSpan("use File.open", second, "File.open", "open")),
		openDiag(first, ReplaceSpan("use File.open", first, "File.open", "open")),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeOnce})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("expected 1 applied fix, got %d", len(res.Applied))
	}
	if res.Applied[0].Rule != "Security/Open" {
		t.Fatalf("applied fix lost its rule: %+v", res.Applied[0])
	}
	if got, want := readFile(t, path), "File.open 'a'\nopen 'b'\n"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
}

func TestApplyAllSkipsManualReviewWithoutUnsafe(t *testing.T) {
	fs, id, path := loadTemp(t, "a.rb", "open 'a'\nopen 'b'\n")
	first := spanOf(t, fs, id, "open", 0)
	second := spanOf(t, fs, id, "open", 1)

	diags := []diag.Diagnostic{
		openDiag(first, ReplaceSpan("use File.open", first, "File.open", "open")),
		openDiag(second, ReplaceSpan("use File.open", second, "File.open", "open",
			WithApplicability(diag.FixApplicabilityManualReview))),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 1 {
		t.Fatalf("applied=%d skipped=%d, want 1/1", len(res.Applied), len(res.Skipped))
	}
	if !strings.Contains(res.Skipped[0].Reason, "--unsafe") {
		t.Fatalf("unexpected skip reason %q", res.Skipped[0].Reason)
	}
	if got, want := readFile(t, path), "File.open 'a'\nopen 'b'\n"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
}

func TestApplyAllUnsafe(t *testing.T) {
	fs, id, path := loadTemp(t, "a.rb", "open 'a'\nKernel.open 'b'\n")
	first := spanOf(t, fs, id, "open", 0)
	qualified := spanOf(t, fs, id, "Kernel.open", 0)

	diags := []diag.Diagnostic{
		openDiag(first, ReplaceSpan("use File.open", first, "File.open", "open",
			WithApplicability(diag.FixApplicabilityManualReview))),
		openDiag(qualified, ReplaceSpan("use File.open", qualified, "File.open", "Kernel.open",
			WithApplicability(diag.FixApplicabilityManualReview))),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, Unsafe: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("expected 2 applied fixes, got %d (%+v)", len(res.Applied), res.Skipped)
	}
	if len(res.FileChanges) != 1 || res.FileChanges[0].EditCount != 2 {
		t.Fatalf("unexpected file changes %+v", res.FileChanges)
	}
	if got, want := readFile(t, path), "File.open 'a'\nFile.open 'b'\n"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
}

func TestApplyByIDIgnoresApplicability(t *testing.T) {
	fs, id, path := loadTemp(t, "a.rb", "open 'a'\nopen 'b'\n")
	second := spanOf(t, fs, id, "open", 1)

	diags := []diag.Diagnostic{
		openDiag(second, ReplaceSpan("use File.open", second, "File.open", "open",
			WithID("Security/Open/file-open"), WithApplicability(diag.FixApplicabilityManualReview))),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "Security/Open/file-open"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("expected 1 applied fix, got %d", len(res.Applied))
	}
	if got, want := readFile(t, path), "open 'a'\nFile.open 'b'\n"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}

	_, err = Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "missing"})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes for unknown id, got %v", err)
	}
}

func TestApplyDryRunLeavesFileAlone(t *testing.T) {
	const src = "open 'a'\n"
	fs, id, path := loadTemp(t, "a.rb", src)
	span := spanOf(t, fs, id, "open", 0)

	res, err := Apply(fs, []diag.Diagnostic{
		openDiag(span, ReplaceSpan("use File.open", span, "File.open", "open")),
	}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.FileChanges) != 1 {
		t.Fatalf("expected 1 file change, got %d", len(res.FileChanges))
	}
	if got, want := string(res.FileChanges[0].Content), "File.open 'a'\n"; got != want {
		t.Fatalf("dry-run content = %q, want %q", got, want)
	}
	if got := readFile(t, path); got != src {
		t.Fatalf("dry run modified the file: %q", got)
	}
}

func TestApplyRejectsStaleText(t *testing.T) {
	fs, id, path := loadTemp(t, "a.rb", "open 'a'\n")
	span := spanOf(t, fs, id, "open", 0)

	res, err := Apply(fs, []diag.Diagnostic{
		openDiag(span, ReplaceSpan("use File.open", span, "File.open", "exec")),
	}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "existing text does not match expected content" {
		t.Fatalf("unexpected skips %+v", res.Skipped)
	}
	if got := readFile(t, path); got != "open 'a'\n" {
		t.Fatalf("file modified: %q", got)
	}
}

func TestApplySkipsConflictingEdits(t *testing.T) {
	fs, id, path := loadTemp(t, "a.rb", "Kernel.open 'a'\n")
	name := spanOf(t, fs, id, "open", 0)
	qualified := spanOf(t, fs, id, "Kernel.open", 0)

	diags := []diag.Diagnostic{
		openDiag(qualified, ReplaceSpan("use File.open", qualified, "File.open", "Kernel.open")),
		openDiag(name, ReplaceSpan("rename", name, "read", "open")),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 1 {
		t.Fatalf("applied=%d skipped=%d, want 1/1", len(res.Applied), len(res.Skipped))
	}
	if !strings.HasPrefix(res.Skipped[0].Reason, "conflicts with previously applied edits") {
		t.Fatalf("unexpected skip reason %q", res.Skipped[0].Reason)
	}
	if got, want := readFile(t, path), "File.open 'a'\n"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
}

func TestApplyLazyFix(t *testing.T) {
	fs, id, path := loadTemp(t, "a.rb", "::Kernel.open 'a'\n")
	span := spanOf(t, fs, id, "::Kernel.open", 0)

	thunk := diag.FixThunkFunc(func(ctx diag.FixBuildContext) (diag.Fix, error) {
		old := ctx.FileSet.Get(span.File).Text(span)
		return ReplaceSpan("", span, "File.open", old), nil
	})
	res, err := Apply(fs, []diag.Diagnostic{
		openDiag(span, Lazy("use File.open", thunk, WithID("Security/Open/file-open"))),
	}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Applied[0].Title != "use File.open" || res.Applied[0].ID != "Security/Open/file-open" {
		t.Fatalf("lazy metadata lost: %+v", res.Applied[0])
	}
	if got, want := readFile(t, path), "File.open 'a'\n"; got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
}

func TestApplyVirtualFileSkipped(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("stdin.rb", []byte("open 'a'"))
	span := source.Span{File: id, Start: 0, End: 4}

	res, err := Apply(fs, []diag.Diagnostic{
		openDiag(span, ReplaceSpan("use File.open", span, "File.open", "open")),
	}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "target file is virtual" {
		t.Fatalf("unexpected skips %+v", res.Skipped)
	}
}

func TestApplyWithoutFixes(t *testing.T) {
	fs := source.NewFileSet()
	_, err := Apply(fs, nil, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
}

func TestWriteFileAtomicKeepsMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.rb")
	if err := os.WriteFile(path, []byte("old"), 0o750); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writeFileAtomic(path, []byte("new")); err != nil {
		t.Fatalf("writeFileAtomic: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o750 {
		t.Fatalf("mode = %v, want 0750", info.Mode().Perm())
	}
	if got := readFile(t, path); got != "new" {
		t.Fatalf("content = %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary file left behind: %d entries", len(entries))
	}
}
