package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

// LocationJSON is a span resolved against the FileSet. Text is the source the
// span covers, e.g. the flagged method name.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
	Text      string `json:"text,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type FixEditJSON struct {
	Location LocationJSON `json:"location"`
	NewText  string       `json:"new_text"`
	OldText  string       `json:"old_text,omitempty"`
}

// FixPreviewJSON shows the touched lines before and after the whole fix.
type FixPreviewJSON struct {
	FirstLine uint32   `json:"first_line"`
	Before    []string `json:"before"`
	After     []string `json:"after"`
}

// FixJSON describes one suggested rewrite. Command is the rbsec invocation
// that applies exactly this fix; RequiresUnsafe tells whether fix --all
// would need --unsafe to pick it up.
type FixJSON struct {
	ID             string          `json:"id,omitempty"`
	Rule           string          `json:"rule,omitempty"`
	Title          string          `json:"title"`
	Kind           string          `json:"kind"`
	Applicability  string          `json:"applicability"`
	RequiresUnsafe bool            `json:"requires_unsafe,omitempty"`
	IsPreferred    bool            `json:"is_preferred,omitempty"`
	Command        string          `json:"command,omitempty"`
	BuildError     string          `json:"build_error,omitempty"`
	Edits          []FixEditJSON   `json:"edits,omitempty"`
	Preview        *FixPreviewJSON `json:"preview,omitempty"`
}

// DiagnosticJSON is one offense or lexer/parser error.
type DiagnosticJSON struct {
	Severity    string       `json:"severity"`
	Code        string       `json:"code"`
	Rule        string       `json:"rule,omitempty"`
	Message     string       `json:"message"`
	Location    LocationJSON `json:"location"`
	Correctable bool         `json:"correctable,omitempty"`
	Notes       []NoteJSON   `json:"notes,omitempty"`
	Fixes       []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput is the root of the native JSON report. ByRule counts the
// listed diagnostics per cop; errors without a cop are not counted.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Dropped     int              `json:"dropped,omitempty"`
	ByRule      map[string]int   `json:"by_rule,omitempty"`
}

func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode, includePositions bool) LocationJSON {
	loc := LocationJSON{
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if int(span.File) >= fs.Len() {
		return loc
	}
	file := fs.Get(span.File)
	loc.File = file.FormatPath(pathMode.mode(), fs.BaseDir())

	if includePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
		if startPos.Line == endPos.Line {
			loc.Text = file.Text(span)
		}
	}
	return loc
}

// orderFixes puts preferred fixes first, then safer ones.
func orderFixes(fixes []*diag.Fix) []*diag.Fix {
	ordered := append([]*diag.Fix(nil), fixes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		fi, fj := ordered[i], ordered[j]
		if fi.IsPreferred != fj.IsPreferred {
			return fi.IsPreferred
		}
		if fi.Applicability != fj.Applicability {
			return fi.Applicability < fj.Applicability
		}
		return fi.ID < fj.ID
	})
	return ordered
}

// fixCommand is the command line that applies the fix with the given id in
// path. fix --id accepts every applicability, so no --unsafe is needed.
func fixCommand(id, path string) string {
	if id == "" || path == "" {
		return ""
	}
	return "rbsec fix --id " + id + " " + path
}

func makeFix(d *diag.Diagnostic, f *diag.Fix, fs *source.FileSet, opts JSONOpts) FixJSON {
	resolved, err := f.Resolve(diag.FixBuildContext{FileSet: fs})
	out := FixJSON{
		ID:             resolved.ID,
		Rule:           d.Rule,
		Title:          resolved.Title,
		Kind:           resolved.Kind.String(),
		Applicability:  resolved.Applicability.String(),
		RequiresUnsafe: resolved.Applicability != diag.FixApplicabilityAlwaysSafe,
		IsPreferred:    resolved.IsPreferred,
	}
	if err != nil {
		out.BuildError = err.Error()
		return out
	}
	if int(d.Primary.File) < fs.Len() {
		out.Command = fixCommand(resolved.ID, fs.Get(d.Primary.File).FormatPath(opts.PathMode.mode(), fs.BaseDir()))
	}
	if len(resolved.Edits) == 0 {
		return out
	}
	out.Edits = make([]FixEditJSON, len(resolved.Edits))
	for k, edit := range resolved.Edits {
		out.Edits[k] = FixEditJSON{
			Location: makeLocation(edit.Span, fs, opts.PathMode, opts.IncludePositions),
			NewText:  edit.NewText,
			OldText:  edit.OldText,
		}
	}
	if opts.IncludePreviews {
		if preview, err := previewFix(fs, resolved.Edits); err == nil {
			out.Preview = &FixPreviewJSON{
				FirstLine: preview.firstLine,
				Before:    preview.before,
				After:     preview.after,
			}
		}
	}
	return out
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) (DiagnosticsOutput, error) {
	items := bag.Items()
	shown := len(items)
	if opts.Max > 0 && opts.Max < shown {
		shown = opts.Max
	}

	output := DiagnosticsOutput{
		Diagnostics: make([]DiagnosticJSON, 0, shown),
		Dropped:     bag.Dropped() + len(items) - shown,
	}
	for i := range shown {
		d := &items[i]
		entry := DiagnosticJSON{
			Severity:    d.Severity.String(),
			Code:        d.Code.ID(),
			Rule:        d.Rule,
			Message:     d.Message,
			Location:    makeLocation(d.Primary, fs, opts.PathMode, opts.IncludePositions),
			Correctable: len(d.Fixes) > 0,
		}

		if opts.IncludeNotes && len(d.Notes) > 0 {
			entry.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				entry.Notes[j] = NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(note.Span, fs, opts.PathMode, opts.IncludePositions),
				}
			}
		}

		if opts.IncludeFixes && len(d.Fixes) > 0 {
			for _, f := range orderFixes(d.Fixes) {
				entry.Fixes = append(entry.Fixes, makeFix(d, f, fs, opts))
			}
		}

		if d.Rule != "" {
			if output.ByRule == nil {
				output.ByRule = make(map[string]int)
			}
			output.ByRule[d.Rule]++
		}
		output.Diagnostics = append(output.Diagnostics, entry)
	}
	output.Count = len(output.Diagnostics)
	return output, nil
}

// JSON writes the native report, indented.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	output, err := BuildDiagnosticsOutput(bag, fs, opts)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
