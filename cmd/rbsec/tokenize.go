package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rbsec/internal/diagfmt"
	"rbsec/internal/driver"
)

func newTokenizeCmd(g *globals) *cobra.Command {
	var formatFlag string
	cmd := &cobra.Command{
		Use:   "tokenize [flags] file.rb",
		Short: "Dump the tokens of a Ruby file",
		Long:  `Tokenize breaks a Ruby file into tokens with their spans and leading trivia`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(formatFlag, "pretty", "json")
			if err != nil {
				return err
			}

			var (
				result *driver.TokenizeResult
				tokErr error
			)
			timer := g.timed("tokenize", func() string {
				result, tokErr = driver.Tokenize(args[0], g.maxDiagnostics)
				if tokErr != nil {
					return ""
				}
				return fmt.Sprintf("%d tokens", len(result.Tokens))
			})
			if tokErr != nil {
				return fmt.Errorf("tokenization failed: %w", tokErr)
			}

			// Диагностику лексера выводим в stderr
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
				err = diagfmt.FormatTokensJSON(out, result.Tokens, result.FileSet)
			} else {
				err = diagfmt.FormatTokensPretty(out, result.Tokens, result.FileSet)
			}
			g.printTimings(cmd.ErrOrStderr(), timer)
			return err
		},
	}
	cmd.Flags().StringVar(&formatFlag, "format", "pretty", "output format (pretty|json)")
	return cmd
}
