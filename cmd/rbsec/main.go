package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rbsec/internal/version"
)

// Коды выхода как у rubocop: 0 - чисто, 1 - есть нарушения, 2 - ошибка запуска
const (
	exitOK       = 0
	exitOffenses = 1
	exitFailure  = 2
)

// exitError carries a non-zero exit code without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	g := &globals{}
	defer g.teardown(stderr)
	root := newRootCmd(g)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(stderr, "rbsec: %v\n", err)
	return exitFailure
}

func newRootCmd(g *globals) *cobra.Command {
	root := &cobra.Command{
		Use:   "rbsec",
		Short: "Security linter for Ruby sources",
		Long: `rbsec finds Kernel#open calls whose argument may start with "|" and
spawn a shell (the Security/Open cop of RuboCop).`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
	}

	g.bindFlags(root.PersistentFlags())

	root.AddCommand(
		newLintCmd(g),
		newFixCmd(g),
		newTokenizeCmd(g),
		newParseCmd(g),
		newCopsCmd(g),
		newInitCmd(),
		newCleanCmd(),
		newVersionCmd(),
	)
	return root
}
