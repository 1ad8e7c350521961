package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rbsec/internal/ast"
	"rbsec/internal/cop"
	"rbsec/internal/diag"
	"rbsec/internal/lexer"
	"rbsec/internal/observ"
	"rbsec/internal/parser"
	"rbsec/internal/source"
	"rbsec/internal/token"
	"rbsec/internal/trace"
)

// FileResult is the outcome of linting one file.
type FileResult struct {
	Path   string
	FileID source.FileID
	Bag    *diag.Bag
	// Builder and ASTFile are set when Options.KeepAST is on and the file
	// was parsed (not served from the cache).
	Builder *ast.Builder
	ASTFile ast.FileID
	Stats   cop.Stats
	Cached  bool
	Timer   *observ.Timer
	// Err is set when the file could not be read.
	Err error
}

// Result collects the per-file results of a run in input order.
type Result struct {
	FileSet *source.FileSet
	Files   []FileResult
	// Timer holds the merged stage timings when Options.Timings is on.
	Timer *observ.Timer
}

// Bag merges the diagnostics of every file.
func (r *Result) Bag(maxDiagnostics int) *diag.Bag {
	bag := diag.NewBag(maxDiagnostics)
	for i := range r.Files {
		if r.Files[i].Bag != nil {
			bag.Merge(r.Files[i].Bag)
		}
	}
	return bag
}

// Offenses counts cop findings across files.
func (r *Result) Offenses() int {
	n := 0
	for i := range r.Files {
		if r.Files[i].Bag == nil {
			continue
		}
		for _, d := range r.Files[i].Bag.Items() {
			if d.Rule != "" {
				n++
			}
		}
	}
	return n
}

// LintSource lints in-memory Ruby source under a virtual file name.
func LintSource(name string, src []byte, opts Options) (*Result, error) {
	settings, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, src)
	res := lintLoaded(context.Background(), fs, id, &opts, settings)
	return finish(fs, []FileResult{res}, &opts), nil
}

// LintFile lints one file from disk. A file that cannot be read is a Go
// error here; LintDir reports it as a diagnostic instead.
func LintFile(ctx context.Context, path string, opts Options) (*Result, error) {
	settings, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	span, ctx := trace.Start(ctx, trace.ScopePass, "lint")
	res := lintLoaded(ctx, fs, id, &opts, settings)
	span.End(fmt.Sprintf("diags=%d", res.Bag.Len()))
	return finish(fs, []FileResult{res}, &opts), nil
}

func finish(fs *source.FileSet, files []FileResult, opts *Options) *Result {
	out := &Result{FileSet: fs, Files: files}
	if opts.Timings {
		out.Timer = observ.NewTimer()
		for i := range files {
			out.Timer.Merge(files[i].Timer)
		}
	}
	return out
}

// lintLoaded runs the pipeline on a file already in fs. It only touches
// its own FileResult, so callers may run it for many files at once.
func lintLoaded(ctx context.Context, fs *source.FileSet, id source.FileID, opts *Options, settings cop.Settings) FileResult {
	file := fs.Get(id)
	res := FileResult{Path: file.Path, FileID: id, Bag: diag.NewBag(opts.MaxDiagnostics)}
	if opts.Timings {
		res.Timer = observ.NewTimer()
	}
	begin := func(name string) int {
		if res.Timer == nil {
			return -1
		}
		return res.Timer.Begin(name)
	}
	end := func(idx int, note string) {
		if res.Timer == nil || idx < 0 {
			return
		}
		res.Timer.End(idx, note)
	}

	started := time.Now()
	span, ctx := trace.Start(ctx, trace.ScopeFile, file.Path)
	defer func() {
		span.WithExtra("cached", fmt.Sprint(res.Cached)).End(fmt.Sprintf("diags=%d", res.Bag.Len()))
	}()

	var key [32]byte
	useCache := opts.Cache != nil && opts.Stage == LintStageLint && file.Flags&source.FileVirtual == 0
	if useCache {
		key = CacheKey(file.Hash, opts.fingerprint(settings))
		var payload DiskPayload
		ok, err := opts.Cache.Get(key, &payload)
		switch {
		case err != nil:
			trace.Errorf(ctx, "cache", "%v", err)
		case ok && payload.ContentHash == file.Hash:
			payload.restore(id, res.Bag)
			res.Cached = true
			res.Stats.Calls = payload.Calls
			for _, f := range payload.Findings {
				if f.Rule != "" {
					res.Stats.Offenses++
				}
			}
			emit(opts.Progress, Event{File: file.Path, Stage: StageCops, Status: StatusDone, Elapsed: time.Since(started), Offenses: res.Stats.Offenses, Cached: true})
			return res
		}
	}

	reporter := &diag.BagReporter{Bag: res.Bag}

	if opts.Stage == LintStageTokenize {
		emit(opts.Progress, Event{File: file.Path, Stage: StageLex, Status: StatusWorking})
		idx := begin("lex")
		stage, _ := trace.Start(ctx, trace.ScopeStage, "lex")
		n := drainTokens(lexer.New(file, lexer.Options{Reporter: reporter}))
		stage.End(fmt.Sprintf("tokens=%d", n))
		end(idx, fmt.Sprintf("tokens=%d", n))
		emit(opts.Progress, Event{File: file.Path, Stage: StageLex, Status: StatusDone, Elapsed: time.Since(started)})
		return res
	}

	emit(opts.Progress, Event{File: file.Path, Stage: StageParse, Status: StatusWorking})
	idx := begin("parse")
	stage, _ := trace.Start(ctx, trace.ScopeStage, "parse")
	b := ast.NewBuilder(ast.Hints{})
	lx := lexer.New(file, lexer.Options{Reporter: reporter})
	parsed := parser.ParseFile(fs, lx, b, parser.Options{
		MaxErrors: uint(max(opts.MaxDiagnostics, 0)),
		Reporter:  reporter,
	})
	stage.End("")
	end(idx, fmt.Sprintf("diags=%d", res.Bag.Len()))
	if opts.KeepAST {
		res.Builder = b
		res.ASTFile = parsed.File
	}
	if opts.Stage == LintStageSyntax {
		emit(opts.Progress, Event{File: file.Path, Stage: StageParse, Status: StatusDone, Elapsed: time.Since(started)})
		return res
	}

	emit(opts.Progress, Event{File: file.Path, Stage: StageCops, Status: StatusWorking})
	idx = begin("cops")
	stage, _ = trace.Start(ctx, trace.ScopeStage, "cops")
	res.Stats = cop.NewWalker(opts.Registry, settings).Run(b, parsed.File, reporter)
	stage.End(fmt.Sprintf("calls=%d offenses=%d", res.Stats.Calls, res.Stats.Offenses))
	end(idx, fmt.Sprintf("calls=%d offenses=%d", res.Stats.Calls, res.Stats.Offenses))
	for _, p := range res.Stats.Panics {
		trace.Errorf(ctx, "cop", "%s", p)
		reporter.Report(diag.CopInfo, diag.SevWarning, source.Span{File: id}, "cop crashed and was skipped: "+p, nil, nil)
	}

	if useCache && len(res.Stats.Panics) == 0 && res.Bag.Dropped() == 0 {
		if payload, ok := payloadFrom(fs, file, res.Stats.Calls, res.Bag.Items()); ok {
			if err := opts.Cache.Put(key, payload); err != nil {
				trace.Errorf(ctx, "cache", "%v", err)
			}
		}
	}
	emit(opts.Progress, Event{File: file.Path, Stage: StageCops, Status: StatusDone, Elapsed: time.Since(started), Offenses: res.Stats.Offenses})
	return res
}

// drainTokens runs the lexer to EOF and returns the token count.
func drainTokens(lx *lexer.Lexer) int {
	n := 0
	for {
		tok := lx.Next()
		n++
		if tok.Kind == token.EOF {
			return n
		}
	}
}

// loadFailure describes a file that could not be read. The diagnostic
// points at an empty placeholder file so formatters can print its path.
func loadFailure(path string, placeholder source.FileID, err error, maxDiagnostics int) FileResult {
	bag := diag.NewBag(maxDiagnostics)
	msg := fmt.Sprintf("failed to load %s: %v", path, err)
	if errors.Is(err, context.Canceled) {
		msg = fmt.Sprintf("%s: canceled", path)
	}
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.IOLoadFileError,
		Message:  msg,
		Primary:  source.Span{File: placeholder},
	})
	return FileResult{Path: path, FileID: placeholder, Bag: bag, Err: err}
}
