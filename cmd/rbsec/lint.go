package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rbsec/internal/config"
	"rbsec/internal/cop"
	"rbsec/internal/diag"
	"rbsec/internal/driver"
	"rbsec/internal/source"
	"rbsec/internal/trace"
)

type lintFlags struct {
	format    string
	stages    string
	jobs      int
	ui        string
	cache     bool
	failLevel string
	withNotes bool
	suggest   bool
	preview   bool
	fullPath  bool
}

func newLintCmd(g *globals) *cobra.Command {
	f := &lintFlags{}
	cmd := &cobra.Command{
		Use:   "lint [flags] <file.rb|directory>",
		Short: "Check Ruby sources for unsafe Kernel#open calls",
		Long: `Lint a Ruby file or every Ruby file in a directory (*.rb, *.rake, *.gemspec,
Gemfile, Rakefile). Exits with 1 when a diagnostic reaches --fail-level.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, g, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.format, "format", "pretty", "output format (pretty|json|sarif|short|rubocop)")
	fl.StringVar(&f.stages, "stages", "lint", "how far to run (tokenize|syntax|lint)")
	fl.IntVar(&f.jobs, "jobs", 0, "max parallel workers for directory processing (0=auto)")
	fl.StringVar(&f.ui, "ui", "auto", "progress UI for directories (auto|on|off)")
	fl.BoolVar(&f.cache, "cache", false, "reuse findings of unchanged files from the disk cache")
	fl.StringVar(&f.failLevel, "fail-level", "info", "minimum severity that makes the exit code 1 (info|warning|error)")
	fl.BoolVar(&f.withNotes, "with-notes", false, "include diagnostic notes in output")
	fl.BoolVar(&f.suggest, "suggest", false, "include fix suggestions in output")
	fl.BoolVar(&f.preview, "preview", false, "preview fixed lines (implies --suggest)")
	fl.BoolVar(&f.fullPath, "fullpath", false, "emit absolute file paths in output")
	return cmd
}

func runLint(cmd *cobra.Command, g *globals, f *lintFlags, target string) error {
	format, err := parseFormat(f.format, "pretty", "json", "sarif", "short", "rubocop")
	if err != nil {
		return err
	}
	stage, err := driver.ParseLintStage(f.stages)
	if err != nil {
		return err
	}
	failLevel, err := diag.ParseSeverity(f.failLevel)
	if err != nil {
		return fmt.Errorf("invalid --fail-level: %w", err)
	}
	mode, err := readUIMode(f.ui)
	if err != nil {
		return err
	}
	st, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	cfg, reg, settings, err := g.settingsFor(cmd, target)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Registry:       reg,
		Settings:       settings,
		Config:         cfg,
		Stage:          stage,
		MaxDiagnostics: g.maxDiagnostics,
		Timings:        g.timings,
	}
	if f.cache {
		opts.Cache = openCache(cmd)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	var result *driver.Result
	if st.IsDir() {
		result, err = lintDir(cmd, cfg, target, opts, f.jobs, shouldUseTUI(mode, cmd.ErrOrStderr()))
	} else {
		result, err = driver.LintFile(ctx, target, opts)
	}
	if err != nil {
		return fmt.Errorf("lint failed: %w", err)
	}

	bag := result.Bag(g.maxDiagnostics)
	bag.Sort()
	render := renderOptions{
		format:    format,
		color:     g.useColor(out),
		fullPath:  f.fullPath,
		withNotes: f.withNotes,
		suggest:   f.suggest,
		preview:   f.preview,
		args:      os.Args,
		files:     inspectedFiles(result),
	}
	if err := renderDiagnostics(out, bag, result.FileSet, reg, settings, render); err != nil {
		return err
	}
	if format == "pretty" {
		summary(out, len(result.Files), result.Offenses(), render.color)
	}
	g.printTimings(cmd.ErrOrStderr(), result.Timer)

	if bag.HasAtLeast(failLevel) {
		return &exitError{code: exitOffenses}
	}
	return nil
}

// inspectedFiles lists the files that were read, in input order.
func inspectedFiles(result *driver.Result) []source.FileID {
	ids := make([]source.FileID, 0, len(result.Files))
	for _, f := range result.Files {
		if f.Err == nil {
			ids = append(ids, f.FileID)
		}
	}
	return ids
}

func lintDir(cmd *cobra.Command, cfg *config.Config, dir string, opts driver.Options, jobs int, tui bool) (*driver.Result, error) {
	if !tui {
		return driver.LintDir(cmd.Context(), dir, opts, jobs)
	}
	files, err := driver.ListRubyFiles(dir, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	title := fmt.Sprintf("rbsec lint %s", filepath.Clean(dir))
	return runLintWithUI(cmd.Context(), cmd.ErrOrStderr(), title, dir, files, opts, jobs)
}

// openCache opens the disk cache or warns and returns nil; a broken
// cache never fails the run.
func openCache(cmd *cobra.Command) *driver.DiskCache {
	dc, err := driver.OpenDiskCache("rbsec")
	if err != nil {
		trace.Errorf(cmd.Context(), "cache", "open: %v", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: cache disabled: %v\n", diag.IOCacheError.ID(), err)
		return nil
	}
	return dc
}

// settingsFor loads the config for target and resolves the cop settings.
func (g *globals) settingsFor(cmd *cobra.Command, target string) (*config.Config, *cop.Registry, cop.Settings, error) {
	cfg, err := g.loadConfig(cmd, target)
	if err != nil {
		return nil, nil, nil, err
	}
	reg := registry()
	settings, err := cfg.Settings(reg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, reg, settings, nil
}
