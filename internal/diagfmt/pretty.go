package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

type palette struct {
	err   *color.Color
	warn  *color.Color
	info  *color.Color
	path  *color.Color
	caret *color.Color
	note  *color.Color
	fix   *color.Color
	dim   *color.Color
	add   *color.Color
	del   *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:   mk(color.FgRed, color.Bold),
		warn:  mk(color.FgYellow, color.Bold),
		info:  mk(color.FgCyan, color.Bold),
		path:  mk(color.Bold),
		caret: mk(color.FgRed),
		note:  mk(color.FgBlue, color.Bold),
		fix:   mk(color.FgGreen),
		dim:   mk(color.Faint),
		add:   mk(color.FgGreen),
		del:   mk(color.FgRed),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE> [Rule]: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &d, fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	head := fmt.Sprintf("%s %s", d.Severity.String(), d.Code.ID())
	if d.Rule != "" {
		head += " [" + d.Rule + "]"
	}
	loc, ok := locate(fs, d.Primary, opts.PathMode)
	if ok {
		fmt.Fprintf(w, "%s: ", pal.path.Sprint(loc))
	}
	fmt.Fprintf(w, "%s: %s\n", pal.severity(d.Severity).Sprint(head), d.Message)
	if ok {
		writeSnippet(w, fs, d.Primary, opts, pal)
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			nloc, nok := locate(fs, n.Span, opts.PathMode)
			if nok {
				fmt.Fprintf(w, "  %s %s: %s\n", pal.note.Sprint("note:"), nloc, n.Msg)
			} else {
				fmt.Fprintf(w, "  %s %s\n", pal.note.Sprint("note:"), n.Msg)
			}
		}
	}
	if opts.ShowFixes && len(d.Fixes) > 0 {
		writeFixes(w, fs, d.Fixes, opts, pal)
	}
}

// locate renders path:line:col, or false when the span is outside fs.
func locate(fs *source.FileSet, span source.Span, mode PathMode) (string, bool) {
	if fs == nil || int(span.File) >= fs.Len() {
		return "", false
	}
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", f.FormatPath(mode.mode(), fs.BaseDir()), start.Line, start.Col), true
}

func writeSnippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, pal palette) {
	f := fs.Get(span.File)
	if len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(span)
	ctx := uint32(max(opts.Context, 0))
	first := start.Line - min(ctx, start.Line-1)
	last := end.Line + ctx
	total := uint32(len(f.LineIdx)) + 1 // #nosec G115 -- FileSet.Add checked the size
	last = min(last, total)
	gutter := len(fmt.Sprint(last))

	for line := first; line <= last; line++ {
		text := f.Line(line)
		if line == last && line > end.Line && text == "" {
			break
		}
		if opts.Width > 0 {
			text = runewidth.Truncate(text, int(opts.Width), "…")
		}
		fmt.Fprintf(w, "%s %s\n", pal.dim.Sprintf("%*d |", gutter, line), text)
		if line < start.Line || line > end.Line {
			continue
		}
		full := f.Line(line)
		from := 0
		if line == start.Line {
			from = min(int(start.Col-1), len(full))
		}
		to := len(full)
		if line == end.Line {
			to = min(int(end.Col-1), len(full))
		}
		fmt.Fprintf(w, "%s %s\n", pal.dim.Sprintf("%*s |", gutter, ""), pal.caret.Sprint(underline(full, from, to)))
	}
}

// underline builds the "   ^~~~" marker for text[from:to], keeping tabs so
// the marker lines up with the printed source.
func underline(text string, from, to int) string {
	var b strings.Builder
	for _, r := range text[:from] {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := runewidth.StringWidth(text[from:max(to, from)])
	b.WriteByte('^')
	if width > 1 {
		b.WriteString(strings.Repeat("~", width-1))
	}
	return b.String()
}

func writeFixes(w io.Writer, fs *source.FileSet, fixes []*diag.Fix, opts PrettyOpts, pal palette) {
	ctx := diag.FixBuildContext{FileSet: fs}
	for i, f := range orderFixes(fixes) {
		resolved, err := f.Resolve(ctx)
		label := fmt.Sprintf("fix #%d: %s", i+1, f.Title)
		if resolved.Title != "" {
			label = fmt.Sprintf("fix #%d: %s", i+1, resolved.Title)
		}
		fmt.Fprintf(w, "  %s (%s)", pal.fix.Sprint(label), f.Applicability)
		if resolved.ID != "" {
			fmt.Fprintf(w, " id=%s", resolved.ID)
		}
		fmt.Fprintln(w)
		if err != nil {
			fmt.Fprintf(w, "    error: %v\n", err)
			continue
		}
		for _, e := range resolved.Edits {
			loc, _ := locate(fs, e.Span, opts.PathMode)
			fmt.Fprintf(w, "    edit %s apply=%q\n", loc, e.NewText)
		}
		if !opts.ShowPreview || len(resolved.Edits) == 0 {
			continue
		}
		preview, perr := previewFix(fs, resolved.Edits)
		if perr != nil {
			fmt.Fprintf(w, "    preview unavailable: %v\n", perr)
			continue
		}
		fmt.Fprintln(w, "    preview:")
		for _, l := range preview.numbered(preview.before) {
			fmt.Fprintf(w, "      %s\n", pal.del.Sprint("- "+l))
		}
		for _, l := range preview.numbered(preview.after) {
			fmt.Fprintf(w, "      %s\n", pal.add.Sprint("+ "+l))
		}
	}
}
