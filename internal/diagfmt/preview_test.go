package diagfmt

import (
	"reflect"
	"strings"
	"testing"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

func TestPreviewFixAppliesEditsTogether(t *testing.T) {
	fs := source.NewFileSet()
	src := "x = 1\nopen(\"a\")\nputs 2\nopen(\"b\") if y\n"
	id := fs.AddVirtual("app.rb", []byte(src))
	at := func(needle string) source.Span {
		i := strings.Index(src, needle)
		return source.Span{File: id, Start: uint32(i), End: uint32(i + 4)} // #nosec G115 -- test input
	}

	// порядок правок не важен
	p, err := previewFix(fs, []diag.TextEdit{
		{Span: at(`open("b")`), NewText: "File.open"},
		{Span: at(`open("a")`), NewText: "File.open"},
	})
	if err != nil {
		t.Fatalf("previewFix: %v", err)
	}
	if p.firstLine != 2 {
		t.Fatalf("first line = %d, want 2", p.firstLine)
	}
	wantBefore := []string{`open("a")`, "puts 2", `open("b") if y`}
	wantAfter := []string{`File.open("a")`, "puts 2", `File.open("b") if y`}
	if !reflect.DeepEqual(p.before, wantBefore) || !reflect.DeepEqual(p.after, wantAfter) {
		t.Fatalf("preview = %q / %q", p.before, p.after)
	}
	if got := p.numbered(p.after); got[0] != `2 | File.open("a")` || got[2] != `4 | File.open("b") if y` {
		t.Fatalf("numbered = %q", got)
	}
}

func TestPreviewFixAlignsLineNumbers(t *testing.T) {
	fs := source.NewFileSet()
	src := strings.Repeat("\n", 8) + "open(a)\n\nopen(b)\n"
	id := fs.AddVirtual("wide.rb", []byte(src))
	p, err := previewFix(fs, []diag.TextEdit{
		{Span: source.Span{File: id, Start: 8, End: 12}, NewText: "File.open"},
		{Span: source.Span{File: id, Start: 17, End: 21}, NewText: "File.open"},
	})
	if err != nil {
		t.Fatalf("previewFix: %v", err)
	}
	got := p.numbered(p.before)
	want := []string{" 9 | open(a)", "10 | ", "11 | open(b)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("numbered = %q, want %q", got, want)
	}
}

func TestPreviewFixRejectsBadEdits(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.AddVirtual("a.rb", []byte("open(x)\n"))
	b := fs.AddVirtual("b.rb", []byte("open(y)\n"))

	cases := map[string][]diag.TextEdit{
		"none": nil,
		"overlap": {
			{Span: source.Span{File: a, Start: 0, End: 4}, NewText: "File.open"},
			{Span: source.Span{File: a, Start: 2, End: 6}, NewText: "x"},
		},
		"two files": {
			{Span: source.Span{File: a, Start: 0, End: 4}, NewText: "File.open"},
			{Span: source.Span{File: b, Start: 0, End: 4}, NewText: "File.open"},
		},
		"past end": {
			{Span: source.Span{File: a, Start: 4, End: 40}, NewText: ""},
		},
	}
	for name, edits := range cases {
		if _, err := previewFix(fs, edits); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
