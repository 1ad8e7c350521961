package diag

import (
	"errors"
	"testing"

	"rbsec/internal/source"
)

func TestBagLimitAndMerge(t *testing.T) {
	b := NewBag(2)
	for i := 0; i < 3; i++ {
		b.Add(New(SevWarning, CopSecurityOpen, source.Span{Start: uint32(i)}, "x"))
	}
	if b.Len() != 2 || b.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d", b.Len(), b.Dropped())
	}

	other := NewBag(0)
	other.Add(NewError(SynUnexpectedToken, source.Span{}, "boom"))
	b.Merge(other)
	if b.Len() != 3 || !b.HasErrors() {
		t.Fatalf("merge lost items: %d", b.Len())
	}
	counts := b.CountBySeverity()
	if counts[SevWarning] != 2 || counts[SevError] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(0)
	sp := source.Span{File: 0, Start: 5, End: 9}
	b.Add(New(SevInfo, SynInfo, source.Span{Start: 9, End: 9}, "late"))
	b.Add(New(SevWarning, CopSecurityOpen, sp, "w"))
	b.Add(New(SevError, SynUnexpectedToken, sp, "e"))
	b.Add(New(SevWarning, CopSecurityOpen, sp, "w"))

	b.Dedup()
	if b.Len() != 3 {
		t.Fatalf("dedup: len = %d", b.Len())
	}
	b.Sort()
	items := b.Items()
	if items[0].Severity != SevError || items[1].Code != CopSecurityOpen || items[2].Message != "late" {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func TestBagFilter(t *testing.T) {
	b := NewBag(0)
	b.Add(New(SevInfo, SynInfo, source.Span{}, "i"))
	b.Add(New(SevWarning, CopSecurityOpen, source.Span{}, "w"))
	b.Filter(func(d Diagnostic) bool { return d.Severity >= SevWarning })
	if b.Len() != 1 || !b.HasWarnings() {
		t.Fatalf("filter failed: %+v", b.Items())
	}
}

func TestBuilderKeepsRule(t *testing.T) {
	bag := NewBag(0)
	dedup := NewDedupReporter(BagReporter{Bag: bag})
	for i := 0; i < 2; i++ {
		ReportWarning(dedup, CopSecurityOpen, source.Span{Start: 1, End: 5}, "msg").
			WithRule("Security/Open").
			WithNote(source.Span{}, "n").
			Emit()
	}
	if bag.Len() != 1 {
		t.Fatalf("dedup reporter let duplicates through: %d", bag.Len())
	}
	if got := bag.Items()[0].Rule; got != "Security/Open" {
		t.Fatalf("rule lost: %q", got)
	}
}

func TestMaterializeFixes(t *testing.T) {
	lazy := &Fix{
		Title: "lazy",
		Thunk: FixThunkFunc(func(FixBuildContext) (Fix, error) {
			return Fix{Edits: []TextEdit{{NewText: "x"}}}, nil
		}),
	}
	eager := &Fix{Title: "eager", Edits: []TextEdit{{NewText: "y"}}}
	got, err := MaterializeFixes(FixBuildContext{}, []*Fix{lazy, eager})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Title != "lazy" || got[0].Edits[0].NewText != "x" || got[0].Thunk != nil {
		t.Fatalf("lazy fix not resolved: %+v", got[0])
	}

	boom := errors.New("boom")
	failing := &Fix{Title: "f", Thunk: FixThunkFunc(func(FixBuildContext) (Fix, error) { return Fix{}, boom })}
	if _, err := MaterializeFixes(FixBuildContext{}, []*Fix{failing}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"warning": SevWarning, "ERROR": SevError, "info": SevInfo, "warn": SevWarning} {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Errorf("ParseSeverity(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSeverity("loud"); err == nil {
		t.Error("expected error")
	}
}
