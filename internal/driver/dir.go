package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"rbsec/internal/config"
	"rbsec/internal/source"
	"rbsec/internal/trace"
)

// IsRubyFile reports whether name is linted when found in a directory.
func IsRubyFile(name string) bool {
	switch filepath.Base(name) {
	case "Gemfile", "Rakefile":
		return true
	}
	switch filepath.Ext(name) {
	case ".rb", ".rake", ".gemspec":
		return true
	}
	return false
}

// ListRubyFiles возвращает отсортированный список Ruby файлов в директории,
// пропуская скрытые каталоги и всё, что исключено конфигурацией.
func ListRubyFiles(dir string, cfg *config.Config) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if path != dir && cfg != nil && cfg.Excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsRubyFile(path) {
			return nil
		}
		if cfg != nil && cfg.Excluded(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// LintDir lints every Ruby file under dir in parallel. Results keep the
// sorted file order regardless of scheduling.
func LintDir(ctx context.Context, dir string, opts Options, jobs int) (*Result, error) {
	pass, ctx := trace.Start(ctx, trace.ScopePass, "discover")
	files, err := ListRubyFiles(dir, opts.Config)
	pass.End(fmt.Sprintf("files=%d", len(files)))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	return LintFiles(ctx, dir, files, opts, jobs)
}

// LintFiles lints an explicit file list with up to jobs workers. Paths are
// reported relative to baseDir.
func LintFiles(ctx context.Context, baseDir string, files []string, opts Options, jobs int) (*Result, error) {
	settings, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	fileSet := source.NewFileSetWithBase(baseDir)
	if len(files) == 0 {
		return finish(fileSet, nil, &opts), nil
	}

	pass, ctx := trace.Start(ctx, trace.ScopePass, "load")
	// FileSet заполняется до запуска горутин
	fileIDs := make([]source.FileID, len(files))
	loadErrors := make(map[int]error)
	for i, path := range files {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
		id, loadErr := fileSet.Load(path)
		if loadErr != nil {
			loadErrors[i] = loadErr
			fileIDs[i] = fileSet.AddVirtual(path, nil)
			continue
		}
		fileIDs[i] = id
	}
	pass.End(fmt.Sprintf("files=%d failed=%d", len(files), len(loadErrors)))

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]FileResult, len(files))

	pass, gctxParent := trace.Start(ctx, trace.ScopePass, "lint")
	g, gctx := errgroup.WithContext(gctxParent)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if loadErr, failed := loadErrors[i]; failed {
				results[i] = loadFailure(path, fileIDs[i], loadErr, opts.MaxDiagnostics)
				emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: loadErr})
				return nil
			}
			results[i] = lintLoaded(gctx, fileSet, fileIDs[i], &opts, settings)
			results[i].Path = path
			return nil
		})
	}

	err = g.Wait()
	pass.End(fmt.Sprintf("files=%d", len(files)))
	if err != nil {
		return finish(fileSet, results, &opts), err
	}
	return finish(fileSet, results, &opts), nil
}
