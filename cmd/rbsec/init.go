package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rbsec/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default rbsec.toml",
		Long: `Write rbsec.toml with every cop and its default settings into [dir]
(default: the current directory). The directory is created if missing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 && args[0] != "" {
				target = args[0]
			}
			if st, err := os.Stat(target); err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return err
				}
				if err := os.MkdirAll(target, 0o755); err != nil {
					return fmt.Errorf("failed to create directory %q: %w", target, err)
				}
			} else if !st.IsDir() {
				return fmt.Errorf("%q is not a directory", target)
			}

			path, err := config.Init(target, registry(), force)
			if err != nil {
				if errors.Is(err, config.ErrExists) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", filepath.Clean(path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing rbsec.toml")
	return cmd
}
