package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"rbsec/internal/diag"
	"rbsec/internal/fix"
	"rbsec/internal/source"
)

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("x = \"unterminated string\n")
	fileID := fs.Add("/home/user/project/app/test.rb", content, 0)
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	bag.Add(diag.New(
		diag.SevError,
		diag.LexUnterminatedString,
		source.Span{File: fileID, Start: 4, End: 25},
		"Unterminated string literal",
	))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "Absolute path", mode: PathModeAbsolute, contains: "/home/user/project/app/test.rb:1:5"},
		{name: "Relative path", mode: PathModeRelative, contains: "app/test.rb:1:5"},
		{name: "Basename only", mode: PathModeBasename, contains: "test.rb:1:5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			for _, want := range []string{"ERROR", "LEX1002", "Unterminated string"} {
				if !strings.Contains(output, want) {
					t.Errorf("Expected %q in output:\n%s", want, output)
				}
			}
		})
	}
}

func TestPrettySnippet(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("a = 1\ndata = Kernel.open(url)\nb = 2\n")
	fileID := fs.AddVirtual("app.rb", content)

	bag := diag.NewBag(4)
	d := diag.New(diag.SevWarning, diag.CopSecurityOpen, source.Span{File: fileID, Start: 13, End: 24}, "The use of `Kernel#open` is a serious security risk.")
	d.Rule = "Security/Open"
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1})
	output := buf.String()

	want := []string{
		"app.rb:2:8: WARNING COP4001 [Security/Open]: The use of `Kernel#open`",
		"1 | a = 1",
		"2 | data = Kernel.open(url)",
		" |        ^~~~~~~~~~",
		"3 | b = 2",
	}
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("expected %q in output:\n%s", w, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("colour codes leaked with Color=false:\n%q", output)
	}
}

func TestPrettyColor(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("c.rb", []byte("open(x)\n"))
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.SevError, diag.CopSecurityOpen, source.Span{File: fileID, Start: 0, End: 4}, "boom"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Color: true})
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI colour codes, got %q", buf.String())
	}
}

func TestUnderlineWide(t *testing.T) {
	// "日本" занимает 4 колонки
	got := underline("\tx = \"日本\" + open(y)", 16, 20)
	if got != "\t"+strings.Repeat(" ", 13)+"^~~~" {
		t.Fatalf("underline = %q", got)
	}
	if got := underline("open", 0, 0); got != "^" {
		t.Fatalf("empty span underline = %q", got)
	}
}

type staticFixThunk struct {
	fix diag.Fix
}

func (t staticFixThunk) Build(_ diag.FixBuildContext) (diag.Fix, error) {
	return t.fix, nil
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("open(\"data.txt\")\n")
	fileID := fs.AddVirtual("test.rb", content)

	bag := diag.NewBag(4)
	primary := source.Span{File: fileID, Start: 0, End: 4}
	d := diag.New(diag.SevWarning, diag.CopSecurityOpen, primary, "The use of `Kernel#open` is a serious security risk.")
	d = d.WithNote(source.Span{File: fileID, Start: 5, End: 15}, "argument is a plain file name")
	d = d.WithFixSuggestion(fix.ReplaceSpan("use File.open", primary, "File.open", "open",
		fix.WithApplicability(diag.FixApplicabilityManualReview)))
	d = d.WithFixSuggestion(fix.Lazy("wrap in File.read", staticFixThunk{
		fix: fix.ReplaceSpan("", source.Span{File: fileID, Start: 0, End: 16}, "File.read(\"data.txt\")", "", fix.WithID("read-001")),
	}, fix.WithApplicability(diag.FixApplicabilitySafeWithHeuristics)))
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true})
	output := buf.String()

	for _, want := range []string{
		"note: test.rb:1:6: argument is a plain file name",
		"fix #1: wrap in File.read (safe-with-heuristics) id=read-001",
		"fix #2: use File.open (manual-review)",
		`apply="File.open"`,
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q, got:\n%s", want, output)
		}
	}
}

func TestPrettyFixPreview(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("data = open(path) # read it")
	fileID := fs.AddVirtual("example.rb", content)

	bag := diag.NewBag(2)
	span := source.Span{File: fileID, Start: 7, End: 11}
	d := diag.New(diag.SevWarning, diag.CopSecurityOpen, span, "unsafe open")
	d = d.WithFixSuggestion(fix.ReplaceSpan("use File.open", span, "File.open", "open"))
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowFixes: true, ShowPreview: true})

	output := buf.String()
	for _, want := range []string{"preview:", "- 1 | data = open(path) # read it", "+ 1 | data = File.open(path) # read it"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestShort(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("app/x.rb", []byte("\nopen(x)\n"))
	bag := diag.NewBag(2)
	d := diag.New(diag.SevWarning, diag.CopSecurityOpen, source.Span{File: fileID, Start: 1, End: 5}, "The use of `Kernel#open` is a serious security risk.")
	d.Rule = "Security/Open"
	bag.Add(d)

	var buf bytes.Buffer
	if err := Short(&buf, bag, fs); err != nil {
		t.Fatal(err)
	}
	want := "warning COP4001 app/x.rb:2:1 Security/Open: The use of `Kernel#open` is a serious security risk.\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := Short(&buf, diag.NewBag(0), fs); err != nil || buf.Len() != 0 {
		t.Fatalf("empty bag printed %q (%v)", buf.String(), err)
	}
}
