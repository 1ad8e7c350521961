package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rbsec/internal/diagfmt"
	"rbsec/internal/driver"
)

func newParseCmd(g *globals) *cobra.Command {
	var formatFlag string
	cmd := &cobra.Command{
		Use:   "parse [flags] file.rb",
		Short: "Dump the syntax tree of a Ruby file",
		Long:  `Parse a Ruby file and print the tree the cops walk over`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(formatFlag, "pretty", "json")
			if err != nil {
				return err
			}

			var (
				result   *driver.ParseResult
				parseErr error
			)
			timer := g.timed("parse", func() string {
				result, parseErr = driver.Parse(args[0], g.maxDiagnostics)
				if parseErr != nil {
					return ""
				}
				return fmt.Sprintf("%d diagnostics", result.Bag.Len())
			})
			if parseErr != nil {
				return fmt.Errorf("parse failed: %w", parseErr)
			}

			if result.Bag.Len() > 0 {
				stderr := cmd.ErrOrStderr()
				diagfmt.Pretty(stderr, result.Bag, result.FileSet, diagfmt.PrettyOpts{
					Color:   g.useColor(stderr),
					Context: 1,
				})
				fmt.Fprintln(stderr)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				err = diagfmt.FormatASTJSON(out, result.Builder, result.ASTFile)
			} else {
				err = diagfmt.FormatASTPretty(out, result.Builder, result.ASTFile, result.FileSet)
			}
			g.printTimings(cmd.ErrOrStderr(), timer)
			if err != nil {
				return err
			}
			if result.Bag.HasErrors() {
				return &exitError{code: exitOffenses}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&formatFlag, "format", "pretty", "output format (pretty|json)")
	return cmd
}
