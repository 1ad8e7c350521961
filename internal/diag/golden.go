package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"rbsec/internal/source"
)

// ShortLine is one diagnostic or note in the short layout used by golden
// files and `lint --format short`:
//
//	warning COP4001 app/x.rb:3:1 Security/Open: The use of ...
type ShortLine struct {
	Label   string // severity label or "note"
	Code    string
	Path    string // slash-separated, relative to the FileSet base
	Line    uint32
	Col     uint32
	Rule    string
	Message string // single line
}

func (l ShortLine) String() string {
	msg := l.Message
	if l.Rule != "" {
		msg = l.Rule + ": " + msg
	}
	return fmt.Sprintf("%s %s %s:%d:%d %s", l.Label, l.Code, l.Path, l.Line, l.Col, msg)
}

func compareShort(a, b ShortLine) int {
	return cmp.Or(
		strings.Compare(a.Path, b.Path),
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(a.Col, b.Col),
		strings.Compare(a.Label, b.Label),
		strings.Compare(a.Code, b.Code),
		strings.Compare(a.Rule, b.Rule),
		strings.Compare(a.Message, b.Message),
	)
}

// ShortLines resolves diags into short lines ordered by file, position and
// code. Notes follow as "note" lines under the code of their diagnostic.
// Spans of files missing from fs are skipped.
func ShortLines(diags []Diagnostic, fs *source.FileSet, withNotes bool) []ShortLine {
	if fs == nil {
		return nil
	}
	var lines []ShortLine
	for i := range diags {
		d := &diags[i]
		if l, ok := shortAt(fs, d.Primary); ok {
			l.Label = d.Severity.Label()
			l.Code = d.Code.ID()
			l.Rule = d.Rule
			l.Message = oneLine(d.Message)
			lines = append(lines, l)
		}
		if !withNotes {
			continue
		}
		for _, note := range d.Notes {
			if l, ok := shortAt(fs, note.Span); ok {
				l.Label = "note"
				l.Code = d.Code.ID()
				l.Message = oneLine(note.Msg)
				lines = append(lines, l)
			}
		}
	}
	slices.SortStableFunc(lines, compareShort)
	return lines
}

// FormatShort joins ShortLines with newlines, without a trailing one.
func FormatShort(diags []Diagnostic, fs *source.FileSet, withNotes bool) string {
	lines := ShortLines(diags, fs, withNotes)
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.String())
	}
	return b.String()
}

func shortAt(fs *source.FileSet, span source.Span) (ShortLine, bool) {
	if int(span.File) >= fs.Len() {
		return ShortLine{}, false
	}
	start, _ := fs.Resolve(span)
	path := filepath.ToSlash(fs.Get(span.File).FormatPath("relative", fs.BaseDir()))
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	return ShortLine{
		Path: path,
		Line: start.Line,
		Col:  start.Col,
	}, true
}

// oneLine folds line breaks so a message never spans output lines.
func oneLine(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	return strings.TrimSpace(strings.ReplaceAll(msg, "\n", " "))
}
