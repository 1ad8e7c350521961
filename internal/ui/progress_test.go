package ui

import (
	"strings"
	"testing"

	"rbsec/internal/driver"
)

func TestProgressModelEvents(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("lint", []string{"app/a.rb", "./app/b.rb"}, events).(*progressModel)

	m.applyEvent(driver.Event{File: "app/a.rb", Stage: driver.StageParse, Status: driver.StatusWorking})
	if got := m.items[0].status; got != "parsing" {
		t.Fatalf("status = %q, want parsing", got)
	}
	m.applyEvent(driver.Event{File: "app/b.rb", Stage: driver.StageCops, Status: driver.StatusDone, Offenses: 2, Cached: true})
	if got := m.items[1].status; got != "done" {
		t.Fatalf("status = %q, want done", got)
	}
	m.applyEvent(driver.Event{File: "unknown.rb", Status: driver.StatusError})

	view := m.View()
	for _, want := range []string{"2 offenses", "1 cached", "app/a.rb", "(2)"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view misses %q:\n%s", want, view)
		}
	}
}

func TestProgressModelDone(t *testing.T) {
	events := make(chan driver.Event)
	close(events)
	m := NewProgressModel("lint", []string{"a.rb"}, events).(*progressModel)
	msg := m.listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("closed channel must yield doneMsg, got %T", msg)
	}
	m.Update(msg)
	if !m.done || !strings.HasPrefix(stripANSI(m.View()), "done: lint") {
		t.Fatalf("model not finished:\n%s", m.View())
	}
}

func TestVisibleItems(t *testing.T) {
	files := make([]string, 30)
	for i := range files {
		files[i] = strings.Repeat("x", i+1) + ".rb"
	}
	m := NewProgressModel("lint", files, nil).(*progressModel)
	m.items[3].status = "parsing"
	m.items[7].status = "error"
	m.items[9].status = "done"
	m.items[9].offenses = 1
	got := m.visibleItems()
	if len(got) != 3 || got[0].path != files[3] || got[1].path != files[7] || got[2].path != files[9] {
		t.Fatalf("unexpected visible items %+v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short.rb", 20); got != "short.rb" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("app/models/very_long_name.rb", 10); got != "app/mod..." {
		t.Fatalf("got %q", got)
	}
	if got := truncate("日本語ファイル.rb", 3); got != "日" {
		t.Fatalf("got %q", got)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
