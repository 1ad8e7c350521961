package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"rbsec/internal/config"
	"rbsec/internal/cop"
	"rbsec/internal/cop/security"
	"rbsec/internal/diag"
	"rbsec/internal/trace"
)

func registry() *cop.Registry {
	reg := cop.NewRegistry()
	security.Register(reg)
	return reg
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func rules(bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		if d.Rule != "" {
			out = append(out, d.Rule)
		}
	}
	return out
}

func TestIsRubyFile(t *testing.T) {
	tests := map[string]bool{
		"app/models/user.rb":  true,
		"lib/tasks/db.rake":   true,
		"Gemfile":             true,
		"sub/Rakefile":        true,
		"rbsec.gemspec":       true,
		"Gemfile.lock":        false,
		"README.md":           false,
		"script.rb.bak":       false,
		"config/database.yml": false,
	}
	for name, want := range tests {
		if got := IsRubyFile(name); got != want {
			t.Errorf("IsRubyFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestListRubyFilesExcludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Gemfile":            "source 'https://rubygems.org'\n",
		"app/a.rb":           "",
		"lib/tasks/x.rake":   "",
		"pkg.gemspec":        "",
		"vendor/gems/b.rb":   "",
		".git/hooks/c.rb":    "",
		"README.md":          "",
		"db/schema.rb":       "",
		"db/migrate/0001.rb": "",
	})
	cfg := config.Default(root)
	cfg.Exclude = []string{"vendor/**", "db/schema.rb"}

	files, err := ListRubyFiles(root, cfg)
	if err != nil {
		t.Fatal(err)
	}
	var rel []string
	for _, f := range files {
		r, _ := filepath.Rel(root, f)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{"Gemfile", "app/a.rb", "db/migrate/0001.rb", "lib/tasks/x.rake", "pkg.gemspec"}
	if fmt.Sprint(rel) != fmt.Sprint(want) {
		t.Fatalf("files = %v, want %v", rel, want)
	}
}

func TestLintSource(t *testing.T) {
	res, err := LintSource("t.rb", []byte("open(params[:url])\nFile.open(path)\n"), Options{Registry: registry()})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(res.Files))
	}
	got := rules(res.Files[0].Bag)
	if len(got) != 1 || got[0] != security.OpenName {
		t.Fatalf("rules = %v", got)
	}
	if res.Offenses() != 1 {
		t.Fatalf("offenses = %d", res.Offenses())
	}
	if res.Files[0].Stats.Calls < 2 {
		t.Fatalf("expected at least 2 calls, got %+v", res.Files[0].Stats)
	}
}

func TestLintSourceNeedsRegistry(t *testing.T) {
	if _, err := LintSource("t.rb", []byte("open(x)\n"), Options{}); !errors.Is(err, errNoRegistry) {
		t.Fatalf("expected errNoRegistry, got %v", err)
	}
	res, err := LintSource("t.rb", []byte("open(x)\n"), Options{Stage: LintStageSyntax})
	if err != nil {
		t.Fatal(err)
	}
	if res.Files[0].Bag.Len() != 0 {
		t.Fatalf("syntax stage must not run cops: %v", res.Files[0].Bag.Items())
	}
}

func TestLintStages(t *testing.T) {
	src := []byte("open(params[:url]\n")
	tests := []struct {
		stage      LintStage
		wantSyntax bool
	}{
		{LintStageTokenize, false},
		{LintStageSyntax, true},
		{LintStageLint, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			res, err := LintSource("t.rb", src, Options{Registry: registry(), Stage: tt.stage})
			if err != nil {
				t.Fatal(err)
			}
			if got := res.Files[0].Bag.HasErrors(); got != tt.wantSyntax {
				t.Fatalf("HasErrors = %v, want %v: %v", got, tt.wantSyntax, res.Files[0].Bag.Items())
			}
		})
	}
}

func TestParseLintStage(t *testing.T) {
	for in, want := range map[string]LintStage{"": LintStageLint, "all": LintStageLint, "Syntax": LintStageSyntax, "lex": LintStageTokenize} {
		got, err := ParseLintStage(in)
		if err != nil || got != want {
			t.Errorf("ParseLintStage(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseLintStage("sema"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestLintFileMissing(t *testing.T) {
	_, err := LintFile(context.Background(), filepath.Join(t.TempDir(), "nope.rb"), Options{Registry: registry()})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestLintDirOrderAndProgress(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := range 20 {
		files[fmt.Sprintf("f%02d.rb", i)] = fmt.Sprintf("open(name_%d)\n", i)
	}
	writeTree(t, root, files)

	var (
		mu     sync.Mutex
		events = map[string][]Status{}
	)
	sink := SinkFunc(func(ev Event) {
		mu.Lock()
		events[ev.File] = append(events[ev.File], ev.Status)
		mu.Unlock()
	})
	res, err := LintDir(context.Background(), root, Options{Registry: registry(), Progress: sink, Timings: true}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 20 {
		t.Fatalf("expected 20 results, got %d", len(res.Files))
	}
	paths := make([]string, len(res.Files))
	for i, f := range res.Files {
		paths[i] = f.Path
		if len(rules(f.Bag)) != 1 {
			t.Errorf("%s: expected 1 offense, got %v", f.Path, f.Bag.Items())
		}
	}
	if !sort.StringsAreSorted(paths) {
		t.Fatalf("results out of order: %v", paths)
	}
	for _, p := range paths {
		st := events[p]
		if len(st) < 2 || st[0] != StatusQueued || st[len(st)-1] != StatusDone {
			t.Errorf("%s: events %v", p, st)
		}
	}
	if res.Timer == nil || len(res.Timer.Report().Phases) != 2 {
		t.Fatalf("expected parse and cops timings, got %+v", res.Timer)
	}
}

func TestLintFilesLoadFailure(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.rb": "open(x)\n"})
	missing := filepath.Join(root, "gone.rb")
	res, err := LintFiles(context.Background(), root, []string{filepath.Join(root, "a.rb"), missing}, Options{Registry: registry()}, 2)
	if err != nil {
		t.Fatal(err)
	}
	bad := res.Files[1]
	if bad.Err == nil || !errors.Is(bad.Err, os.ErrNotExist) {
		t.Fatalf("expected load error, got %v", bad.Err)
	}
	items := bad.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.IOLoadFileError {
		t.Fatalf("unexpected diagnostics %v", items)
	}
	if len(rules(res.Files[0].Bag)) != 1 {
		t.Fatalf("good file lost its offense")
	}
}

func TestLintDirCache(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.rb": "open(\"data.txt\")\n",
		"b.rb": "Kernel.open(url)\n",
		"c.rb": "puts 1\n",
	})
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default(root)
	cfg.Overrides[security.OpenName] = cop.Override{Options: map[string]any{security.OptDisallowAll: true}}
	opts := Options{Registry: registry(), Config: cfg, Cache: cache}

	first, err := LintDir(context.Background(), root, opts, 2)
	if err != nil {
		t.Fatal(err)
	}
	second, err := LintDir(context.Background(), root, opts, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range second.Files {
		if first.Files[i].Cached {
			t.Errorf("%s: first run must not hit the cache", first.Files[i].Path)
		}
		if !second.Files[i].Cached {
			t.Errorf("%s: second run must hit the cache", second.Files[i].Path)
		}
		a, b := first.Files[i].Bag.Items(), second.Files[i].Bag.Items()
		if len(a) != len(b) {
			t.Fatalf("%s: %d vs %d diagnostics", first.Files[i].Path, len(a), len(b))
		}
		for j := range a {
			if a[j].Message != b[j].Message || a[j].Primary.Start != b[j].Primary.Start || a[j].Rule != b[j].Rule {
				t.Errorf("%s: cached diagnostic differs: %+v vs %+v", first.Files[i].Path, a[j], b[j])
			}
			if len(a[j].Fixes) != len(b[j].Fixes) {
				t.Errorf("%s: fixes lost in cache", first.Files[i].Path)
			}
		}
	}
	safe := second.Files[0].Bag.Items()
	if len(safe) != 1 || len(safe[0].Fixes) != 1 || len(safe[0].Fixes[0].Edits) == 0 {
		t.Fatalf("expected cached fix with edits, got %+v", safe)
	}
	if safe[0].Fixes[0].Edits[0].Span.File != second.Files[0].FileID {
		t.Fatalf("cached edit points at the wrong file")
	}

	// другая конфигурация - другой ключ
	third, err := LintDir(context.Background(), root, Options{Registry: registry(), Config: config.Default(root), Cache: cache}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if third.Files[0].Cached {
		t.Fatal("changed config must miss the cache")
	}
	if len(rules(third.Files[0].Bag)) != 0 {
		t.Fatalf("safe literal flagged without DisallowAll: %v", third.Files[0].Bag.Items())
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cache.Dir()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("cache dir survived DropAll: %v", err)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("second DropAll: %v", err)
	}
}

func TestCacheKey(t *testing.T) {
	var a, b [32]byte
	b[0] = 1
	fp := config.Digest{}
	if CacheKey(a, fp) == CacheKey(b, fp) {
		t.Fatal("content must change the key")
	}
	fp2 := config.Digest{1}
	if CacheKey(a, fp) == CacheKey(a, fp2) {
		t.Fatal("fingerprint must change the key")
	}
}

func TestDumps(t *testing.T) {
	tok := TokenizeSource("t.rb", []byte("open 'x'\n"), 0)
	if len(tok.Tokens) < 3 {
		t.Fatalf("expected tokens, got %v", tok.Tokens)
	}
	parsed := ParseSource("t.rb", []byte("def f\n  open(x)\nend\n"), 0)
	if parsed.Bag.Len() != 0 || parsed.Builder == nil {
		t.Fatalf("parse failed: %v", parsed.Bag.Items())
	}
	if _, err := Tokenize(filepath.Join(t.TempDir(), "missing.rb"), 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}

type crashingCop struct{}

func (crashingCop) Name() string { return "Test/Crash" }

func (crashingCop) Check(site cop.CallSite, _ cop.Config, _ cop.Reporter) {
	if site.Method == "boom" {
		panic("kaboom")
	}
}

func TestCopPanicTraceNamesFile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"lib/boom.rb": "boom 1\n"})

	reg := cop.NewRegistry()
	reg.MustRegister(crashingCop{}, cop.Config{Enabled: true, Severity: diag.SevWarning})

	var buf bytes.Buffer
	ctx := trace.WithTracer(context.Background(), trace.NewStreamTracer(&buf, trace.LevelError, trace.FormatNDJSON))
	res, err := LintFile(ctx, filepath.Join(dir, "lib", "boom.rb"), Options{Registry: reg})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files[0].Stats.Panics) != 1 {
		t.Fatalf("expected one recovered panic, got %+v", res.Files[0].Stats)
	}

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var ev struct {
			Name   string `json:"name"`
			File   string `json:"file"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		if ev.Name == "cop" {
			found = true
			if !strings.HasSuffix(ev.File, "lib/boom.rb") || !strings.Contains(ev.Detail, "kaboom") {
				t.Fatalf("cop event = %+v", ev)
			}
		}
	}
	if !found {
		t.Fatalf("no cop event in trace:\n%s", buf.String())
	}
}
