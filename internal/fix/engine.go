package fix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce применяет первый подходящий fix
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll применяет все безопасные fixes (с Unsafe - все)
	ApplyModeAll
	// ApplyModeID применяет fix с заданным ID
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// Unsafe admits fixes below always-safe applicability, such as the
	// manual-review File.open rewrite of Security/Open.
	Unsafe bool
	// Rule keeps only fixes of diagnostics reported by this cop.
	Rule string
	// DryRun computes the new contents without touching the files.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Rule          string
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file. Content is the
// new file text; it is always set for dry runs.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply collects fixes from diagnostics, selects a subset according to opts, and applies them.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	ctx := diag.FixBuildContext{FileSet: fs}
	candidates, buildSkips := gatherCandidates(ctx, diagnostics, opts.Rule)
	result.Skipped = append(result.Skipped, buildSkips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	sortCandidates(candidates)

	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, selectionSkips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	st := newStaging(fs)
	for _, cand := range selected {
		edits, reason := st.stage(cand.fix.Edits)
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{ID: cand.fix.ID, Title: cand.fix.Title, Reason: reason})
			continue
		}
		result.Applied = append(result.Applied, AppliedFix{
			ID:            cand.fix.ID,
			Title:         cand.fix.Title,
			Code:          cand.diag.Code,
			Rule:          cand.diag.Rule,
			Message:       cand.diag.Message,
			Applicability: cand.fix.Applicability,
			PrimaryPath:   formatFilePath(fs, cand.diag.Primary.File),
			EditCount:     edits,
		})
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	changes, err := st.commit(opts.DryRun)
	result.FileChanges = changes
	if err != nil {
		return result, err
	}
	return result, nil
}

// gatherCandidates materialises the fixes of every diagnostic. Fixes that
// fail to build or carry no edits are reported as skipped; fixes without
// an ID get one derived from the diagnostic code and position. A second
// fix with an ID already seen in the same file is skipped.
func gatherCandidates(ctx diag.FixBuildContext, diagnostics []diag.Diagnostic, rule string) ([]candidate, []SkippedFix) {
	var cands []candidate
	var skips []SkippedFix
	seen := make(map[string]struct{})

	order := 0
	for _, d := range diagnostics {
		if len(d.Fixes) == 0 || (rule != "" && d.Rule != rule) {
			continue
		}

		resolved, err := diag.MaterializeFixes(ctx, d.Fixes)
		if err != nil {
			skips = append(skips, SkippedFix{
				Title:  d.Message,
				Reason: fmt.Sprintf("failed to build fixes: %v", err),
			})
			continue
		}

		for idx, f := range resolved {
			if len(f.Edits) == 0 {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
			}
			key := fmt.Sprintf("%d/%s", d.Primary.File, f.ID)
			if _, dup := seen[key]; dup {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "duplicate fix id"})
				continue
			}
			seen[key] = struct{}{}
			cands = append(cands, candidate{diag: d, fix: f, order: order})
			order++
		}
	}
	return cands, skips
}

// sortCandidates orders candidates by file, span, insertion order, code,
// preference, ID and title.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].diag, candidates[j].diag
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if candidates[i].order != candidates[j].order {
			return candidates[i].order < candidates[j].order
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		if candidates[i].fix.IsPreferred != candidates[j].fix.IsPreferred {
			return candidates[i].fix.IsPreferred
		}
		if candidates[i].fix.ID != candidates[j].fix.ID {
			return candidates[i].fix.ID < candidates[j].fix.ID
		}
		return candidates[i].fix.Title < candidates[j].fix.Title
	})
}

func allowed(f diag.Fix, unsafe bool) bool {
	return unsafe || f.Applicability == diag.FixApplicabilityAlwaysSafe
}

func skipFor(f diag.Fix, reason string) SkippedFix {
	return SkippedFix{ID: f.ID, Title: f.Title, Reason: reason}
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.fix.ID != opts.TargetID {
				continue
			}
			if cand.fix.RequiresAll {
				return nil, []SkippedFix{skipFor(cand.fix, "fix requires all fixes to be applied")}
			}
			// явно выбранный по ID fix применяется при любой applicability
			return []candidate{cand}, nil
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}

	case ApplyModeAll:
		selected := make([]candidate, 0, len(candidates))
		var skipped []SkippedFix
		for _, cand := range candidates {
			if allowed(cand.fix, opts.Unsafe) {
				selected = append(selected, cand)
				continue
			}
			skipped = append(skipped, skipFor(cand.fix,
				fmt.Sprintf("applicability is %s (use --unsafe)", cand.fix.Applicability)))
		}
		return selected, skipped

	case ApplyModeOnce:
		var skipped []SkippedFix
		for _, cand := range candidates {
			switch {
			case cand.fix.RequiresAll:
				skipped = append(skipped, skipFor(cand.fix, "fix requires all fixes to be applied"))
			case allowed(cand.fix, opts.Unsafe):
				return []candidate{cand}, skipped
			default:
				skipped = append(skipped, skipFor(cand.fix,
					fmt.Sprintf("applicability is %s (use --unsafe)", cand.fix.Applicability)))
			}
		}
		return nil, skipped
	}
	return nil, nil
}

// staging держит изменённые буферы файлов до записи на диск.
type staging struct {
	fs      *source.FileSet
	buffers map[source.FileID][]byte
	applied map[source.FileID][]diag.TextEdit // sorted by start, in original offsets
	counts  map[source.FileID]int
}

func newStaging(fs *source.FileSet) *staging {
	return &staging{
		fs:      fs,
		buffers: make(map[source.FileID][]byte),
		applied: make(map[source.FileID][]diag.TextEdit),
		counts:  make(map[source.FileID]int),
	}
}

// stage applies the edits of one fix to the buffers. Either every edit
// lands or none does; the reason is non-empty when the fix was rejected.
func (s *staging) stage(edits []diag.TextEdit) (int, string) {
	buckets := groupEditsByFile(edits)
	ids := make([]source.FileID, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	newBuffers := make(map[source.FileID][]byte, len(buckets))
	newApplied := make(map[source.FileID][]diag.TextEdit, len(buckets))
	total := 0
	for _, fileID := range ids {
		file := s.fs.Get(fileID)
		if file == nil {
			return 0, "target file is not loaded"
		}
		if file.Flags&source.FileVirtual != 0 {
			return 0, "target file is virtual"
		}
		fileEdits := buckets[fileID]
		if conflictsWithExisting(s.applied[fileID], fileEdits) {
			return 0, fmt.Sprintf("conflicts with previously applied edits in %s", file.FormatPath("auto", s.fs.BaseDir()))
		}

		base := s.buffers[fileID]
		if base == nil {
			base = file.Content
		}
		working := append([]byte(nil), base...)

		// с конца, чтобы смещения ещё не применённых правок не съезжали
		sort.SliceStable(fileEdits, func(i, j int) bool {
			if fileEdits[i].Span.Start == fileEdits[j].Span.Start {
				return fileEdits[i].Span.End > fileEdits[j].Span.End
			}
			return fileEdits[i].Span.Start > fileEdits[j].Span.Start
		})

		prior := s.applied[fileID]
		merged := append([]diag.TextEdit(nil), prior...)
		for _, edit := range fileEdits {
			start := int(edit.Span.Start) + cumulativeDelta(prior, int(edit.Span.Start))
			end := int(edit.Span.End) + cumulativeDelta(prior, int(edit.Span.End))
			if start < 0 || end < start || end > len(working) {
				return 0, "edit span out of range"
			}
			if edit.OldText != "" && string(working[start:end]) != edit.OldText {
				return 0, "existing text does not match expected content"
			}
			suffix := append([]byte(nil), working[end:]...)
			working = append(append(working[:start], edit.NewText...), suffix...)
			merged = insertEditSorted(merged, edit)
		}
		newBuffers[fileID] = working
		newApplied[fileID] = merged
		total += len(fileEdits)
	}

	for fileID, buf := range newBuffers {
		s.buffers[fileID] = buf
		s.applied[fileID] = newApplied[fileID]
		s.counts[fileID] += len(buckets[fileID])
	}
	return total, ""
}

// commit writes every touched file, or only reports the new contents when
// dryRun is set.
func (s *staging) commit(dryRun bool) ([]FileChange, error) {
	ids := make([]source.FileID, 0, len(s.buffers))
	for id := range s.buffers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	changes := make([]FileChange, 0, len(ids))
	for _, fileID := range ids {
		file := s.fs.Get(fileID)
		buf := s.buffers[fileID]
		change := FileChange{
			Path:      file.FormatPath("relative", s.fs.BaseDir()),
			EditCount: s.counts[fileID],
		}
		if dryRun {
			change.Content = buf
		} else if err := writeFileAtomic(file.Path, buf); err != nil {
			return changes, err
		}
		changes = append(changes, change)
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// writeFileAtomic пишет во временный файл рядом и переименовывает его,
// сохраняя права исходного файла.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".rbsec-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func conflictsWithExisting(existing []diag.TextEdit, edits []diag.TextEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev, cand) {
				return true
			}
		}
	}
	return false
}

// spansConflict reports whether two edits overlap. Spans are half-open;
// two insertions never conflict, an insertion conflicts with a span that
// strictly contains its position.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart <= aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func groupEditsByFile(edits []diag.TextEdit) map[source.FileID][]diag.TextEdit {
	buckets := make(map[source.FileID][]diag.TextEdit)
	for _, edit := range edits {
		buckets[edit.Span.File] = append(buckets[edit.Span.File], edit)
	}
	return buckets
}

// cumulativeDelta is the length change that edits ending at or before pos
// introduced.
func cumulativeDelta(edits []diag.TextEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		eStart := int(e.Span.Start)
		if eStart > pos {
			break
		}
		eEnd := int(e.Span.End)
		if eEnd <= pos {
			delta += len(e.NewText) - (eEnd - eStart)
		}
	}
	return delta
}

func insertEditSorted(edits []diag.TextEdit, edit diag.TextEdit) []diag.TextEdit {
	insertIdx := sort.Search(len(edits), func(i int) bool {
		if edits[i].Span.Start == edit.Span.Start {
			return edits[i].Span.End >= edit.Span.End
		}
		return edits[i].Span.Start > edit.Span.Start
	})
	edits = append(edits, diag.TextEdit{})
	copy(edits[insertIdx+1:], edits[insertIdx:])
	edits[insertIdx] = edit
	return edits
}

func formatFilePath(fs *source.FileSet, fileID source.FileID) string {
	if fs == nil {
		return ""
	}
	file := fs.Get(fileID)
	if file == nil {
		return ""
	}
	return file.FormatPath("auto", fs.BaseDir())
}
