package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"off": LevelOff, "ERROR": LevelError, "phase": LevelPhase, "Detail": LevelDetail, "debug": LevelDebug,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelScopes(t *testing.T) {
	if !LevelPhase.ShouldEmit(ScopePass) || LevelPhase.ShouldEmit(ScopeFile) {
		t.Fatalf("phase level must stop at passes")
	}
	if !LevelDetail.ShouldEmit(ScopeFile) || LevelDetail.ShouldEmit(ScopeStage) {
		t.Fatalf("detail level must stop at files")
	}
	if !LevelDebug.ShouldEmit(ScopeStage) {
		t.Fatalf("debug level records stages")
	}
	if LevelError.ShouldEmit(ScopeRun) {
		t.Fatalf("error level records no spans")
	}
}

func TestSpansNestThroughContext(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	run, ctx := Start(ctx, ScopePass, "lint")
	file, fileCtx := Start(ctx, ScopeFile, "app/a.rb")
	stage, _ := Start(fileCtx, ScopeStage, "parse")
	stage.End("")
	file.WithExtra("offenses", "2").End("")
	run.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 events (stage filtered out), got %d:\n%s", len(lines), buf.String())
	}
	var begin, end struct {
		Kind     string            `json:"kind"`
		Name     string            `json:"name"`
		SpanID   uint64            `json:"span_id"`
		ParentID uint64            `json:"parent_id"`
		Extra    map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &begin); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if begin.Name != "app/a.rb" || begin.ParentID != run.ID() {
		t.Fatalf("file span not nested under run: %+v", begin)
	}
	if err := json.Unmarshal([]byte(lines[2]), &end); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if end.Kind != "end" || end.Extra["offenses"] != "2" {
		t.Fatalf("unexpected end event %+v", end)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)
	ctx := WithTracer(context.Background(), tr)
	Point(ctx, ScopeFile, "cache", "hit")
	Errorf(ctx, "cop-panic", "Security/Open: %s", "boom")

	out := buf.String()
	if !strings.Contains(out, "• cache (hit)") {
		t.Fatalf("missing point event:\n%s", out)
	}
	if !strings.Contains(out, "cop-panic (Security/Open: boom)") {
		t.Fatalf("missing error event:\n%s", out)
	}
}

func TestNopByDefault(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Enabled() {
		t.Fatalf("off level must be disabled")
	}
	span, ctx := Start(context.Background(), ScopeRun, "run")
	if span.ID() != 0 || ctx == nil {
		t.Fatalf("span without tracer must be inert")
	}
	if d := span.End(""); d != 0 {
		t.Fatalf("inert span returned duration %v", d)
	}
}

func TestErrorsNameTheLintedFile(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	pass, ctx := Start(ctx, ScopePass, "lint")
	file, fileCtx := Start(ctx, ScopeFile, "app/models/user.rb")
	if file.ID() != 0 {
		t.Fatalf("phase level must not record file spans")
	}
	if f := frameOf(fileCtx); f.file != "app/models/user.rb" || f.span != pass.ID() {
		t.Fatalf("file frame = %+v", f)
	}
	Errorf(fileCtx, "cop", "panic: %s", "boom")
	Errorf(ctx, "cache", "open: %s", "denied")
	pass.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 events, got %d:\n%s", len(lines), buf.String())
	}
	var inFile, outside struct {
		Name     string `json:"name"`
		File     string `json:"file"`
		ParentID uint64 `json:"parent_id"`
		Detail   string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &inFile); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inFile.File != "app/models/user.rb" || inFile.ParentID != pass.ID() || inFile.Detail != "panic: boom" {
		t.Fatalf("unexpected error event %+v", inFile)
	}
	if err := json.Unmarshal([]byte(lines[2]), &outside); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outside.File != "" {
		t.Fatalf("error outside a file span names %q", outside.File)
	}
}

func TestTextFormatShowsFile(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)
	ctx := WithTracer(context.Background(), tr)

	file, ctx := Start(ctx, ScopeFile, "lib/tasks/x.rake")
	Point(ctx, ScopeStage, "cache", "miss")
	file.End("")

	out := buf.String()
	if !strings.Contains(out, "• cache @lib/tasks/x.rake (miss)") {
		t.Fatalf("point event misses its file:\n%s", out)
	}
	if strings.Contains(out, "lib/tasks/x.rake @lib/tasks/x.rake") {
		t.Fatalf("file span repeats its own path:\n%s", out)
	}
}
