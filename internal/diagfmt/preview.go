package diagfmt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

// fixPreview is the block of whole source lines a fix touches, shown before
// and after all of its edits land. FirstLine numbers before[0] and after[0].
type fixPreview struct {
	firstLine uint32
	before    []string
	after     []string
}

// previewFix applies the edits of one resolved fix to the lines they cover,
// the same way fix.Apply rewrites the file. Edits must share a file and must
// not overlap.
func previewFix(fs *source.FileSet, edits []diag.TextEdit) (fixPreview, error) {
	if fs == nil {
		return fixPreview{}, fmt.Errorf("nil FileSet")
	}
	if len(edits) == 0 {
		return fixPreview{}, fmt.Errorf("fix has no edits")
	}
	ordered := append([]diag.TextEdit(nil), edits...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Span.Start < ordered[j].Span.Start
	})

	fileID := ordered[0].Span.File
	file := fs.Get(fileID)
	if file == nil {
		return fixPreview{}, fmt.Errorf("file %d not found in FileSet", fileID)
	}
	size, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fixPreview{}, fmt.Errorf("len file content overflow: %w", err)
	}

	var last uint32
	for i, e := range ordered {
		switch {
		case e.Span.File != fileID:
			return fixPreview{}, fmt.Errorf("fix spans files %d and %d", fileID, e.Span.File)
		case e.Span.Start > e.Span.End || e.Span.End > size:
			return fixPreview{}, fmt.Errorf("edit %s out of range", e.Span)
		case i > 0 && e.Span.Start < last:
			return fixPreview{}, fmt.Errorf("edits overlap at byte %d", e.Span.Start)
		}
		last = e.Span.End
	}

	first, _ := fs.Resolve(ordered[0].Span)
	_, end := fs.Resolve(ordered[len(ordered)-1].Span)
	blockStart := file.LineStart(first.Line)
	lastLen, err := safecast.Conv[uint32](len(file.Line(end.Line)))
	if err != nil {
		return fixPreview{}, fmt.Errorf("line length overflow: %w", err)
	}
	blockEnd := file.LineStart(end.Line) + lastLen

	var after strings.Builder
	cursor := blockStart
	for _, e := range ordered {
		after.Write(file.Content[cursor:e.Span.Start])
		after.WriteString(e.NewText)
		cursor = e.Span.End
	}
	after.Write(file.Content[cursor:blockEnd])

	return fixPreview{
		firstLine: first.Line,
		before:    previewLines(string(file.Content[blockStart:blockEnd])),
		after:     previewLines(after.String()),
	}, nil
}

func previewLines(text string) []string {
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}

// numbered prefixes each line with its line number, right-aligned to the
// widest number in the block.
func (p fixPreview) numbered(lines []string) []string {
	first := int(p.firstLine)
	width := len(strconv.Itoa(first + max(len(p.before), len(p.after)) - 1))
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("%*d | %s", width, first+i, l)
	}
	return out
}
