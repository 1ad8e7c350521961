package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

func TestRuboCopReport(t *testing.T) {
	fs := source.NewFileSetWithBase("/repo")
	bag, fileID := openFinding(fs, "app/a.rb", "x = 1\nKernel.open(\"a.txt\")\n", 13, 17)
	clean := fs.AddVirtual("app/b.rb", []byte("puts 1\n"))
	bag.Add(diag.New(diag.SevError, diag.SynUnclosedParen, source.Span{File: clean, Start: 4, End: 5}, "unclosed parenthesis"))

	var buf bytes.Buffer
	meta := RuboCopMeta{Version: "0.1.0", PathMode: PathModeRelative, Files: []source.FileID{fileID, clean}}
	if err := RuboCop(&buf, bag, fs, meta); err != nil {
		t.Fatal(err)
	}
	var report rubocopReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if report.Metadata.RuboCopVersion != "0.1.0" || report.Metadata.RubyEngine != "rbsec" {
		t.Errorf("unexpected metadata %+v", report.Metadata)
	}
	want := rubocopSummary{OffenseCount: 2, TargetFileCount: 2, InspectedFileCount: 2}
	if report.Summary != want {
		t.Errorf("summary = %+v, want %+v", report.Summary, want)
	}
	if len(report.Files) != 2 || report.Files[0].Path != "app/a.rb" || report.Files[1].Path != "app/b.rb" {
		t.Fatalf("unexpected files %+v", report.Files)
	}

	open := report.Files[0].Offenses[0]
	if open.CopName != "Security/Open" || open.Severity != "warning" || !open.Correctable || open.Corrected {
		t.Errorf("unexpected offense %+v", open)
	}
	if open.Message != "Security/Open: The use of `Kernel#open` is a serious security risk." {
		t.Errorf("message = %q", open.Message)
	}
	wantLoc := rubocopLocation{StartLine: 2, StartColumn: 8, LastLine: 2, LastColumn: 11, Length: 4, Line: 2, Column: 8}
	if open.Location != wantLoc {
		t.Errorf("location = %+v, want %+v", open.Location, wantLoc)
	}

	syntax := report.Files[1].Offenses[0]
	if syntax.CopName != syntaxCop || syntax.Severity != "fatal" || syntax.Correctable {
		t.Errorf("unexpected syntax offense %+v", syntax)
	}
}

func TestRuboCopListsCleanFiles(t *testing.T) {
	fs := source.NewFileSet()
	fs.AddVirtual("a.rb", []byte("puts 1\n"))
	fs.AddVirtual("b.rb", []byte("puts 2\n"))

	var buf bytes.Buffer
	if err := RuboCop(&buf, diag.NewBag(0), fs, RuboCopMeta{PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	var report rubocopReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 2 || report.Summary.OffenseCount != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Files[0].Offenses == nil {
		t.Errorf("clean files must carry an empty offense list, not null")
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"offenses": []`)) {
		t.Errorf("expected empty offense arrays:\n%s", buf.String())
	}
}
