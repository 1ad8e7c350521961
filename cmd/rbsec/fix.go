package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rbsec/internal/cop"
	"rbsec/internal/driver"
	"rbsec/internal/fix"
)

type fixFlags struct {
	all    bool
	once   bool
	id     string
	unsafe bool
	rule   string
	dryRun bool
}

func newFixCmd(g *globals) *cobra.Command {
	f := &fixFlags{}
	cmd := &cobra.Command{
		Use:   "fix [flags] <file.rb|directory>",
		Short: "Apply available fixes to a Ruby file or directory",
		Long: `Lint the target and apply the fixes attached to its findings. The
File.open rewrite of Security/Open needs manual review, so it is only
applied with --unsafe (or when picked by --id).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, g, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&f.all, "all", false, "apply all allowed fixes")
	fl.BoolVar(&f.once, "once", false, "apply the first available fix (default)")
	fl.StringVar(&f.id, "id", "", "apply fix with a specific identifier")
	fl.BoolVar(&f.unsafe, "unsafe", false, "also apply fixes that need manual review")
	fl.StringVar(&f.rule, "rule", "", "only apply fixes of this cop")
	fl.BoolVar(&f.dryRun, "dry-run", false, "report what would change without writing files")
	return cmd
}

func runFix(cmd *cobra.Command, g *globals, f *fixFlags, target string) error {
	if f.id != "" && (f.all || f.once) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if f.all && f.once {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if f.id != "" {
		mode = fix.ApplyModeID
	} else if f.all {
		mode = fix.ApplyModeAll
	}
	applyOpts := fix.ApplyOptions{
		Mode:     mode,
		TargetID: f.id,
		Unsafe:   f.unsafe,
		Rule:     f.rule,
		DryRun:   f.dryRun,
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	// id уникален только в пределах одного файла
	if info.IsDir() && f.id != "" {
		return fmt.Errorf("fix: id can only be used with a single file")
	}

	cfg, reg, settings, err := g.settingsFor(cmd, target)
	if err != nil {
		return err
	}
	if f.rule != "" {
		if _, ok := reg.Lookup(f.rule); !ok {
			return fmt.Errorf("fix: %w: %s", cop.ErrUnknownCop, f.rule)
		}
	}
	opts := driver.Options{
		Registry:       reg,
		Settings:       settings,
		Config:         cfg,
		MaxDiagnostics: g.maxDiagnostics,
	}

	var result *driver.Result
	if info.IsDir() {
		result, err = driver.LintDir(cmd.Context(), target, opts, 0)
	} else {
		result, err = driver.LintFile(cmd.Context(), target, opts)
	}
	if err != nil {
		return fmt.Errorf("fix: lint failed: %w", err)
	}

	bag := result.Bag(g.maxDiagnostics)
	bag.Sort()
	res, applyErr := fix.Apply(result.FileSet, bag.Items(), applyOpts)
	return handleApplyResult(cmd.OutOrStdout(), res, applyErr, f.dryRun)
}

func handleApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error, dryRun bool) error {
	if res == nil {
		return applyErr
	}

	verb := "Applied"
	if dryRun {
		verb = "Would apply"
	}
	if len(res.Applied) > 0 {
		fmt.Fprintf(out, "%s %d fix(es):\n", verb, len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(out, "  %s [%s] - %s (%d edits, %s)\n",
				item.Title, item.ID, location, item.EditCount, item.Applicability)
		}
	}

	if len(res.FileChanges) > 0 {
		if dryRun {
			fmt.Fprintln(out, "Files that would change:")
		} else {
			fmt.Fprintln(out, "Updated files:")
		}
		for _, change := range res.FileChanges {
			fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintln(out, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			fmt.Fprintln(out, "No applicable fixes found.")
			return nil
		}
		return fmt.Errorf("fix: %w", applyErr)
	}
	return nil
}
