package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rbsec/internal/driver"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the rbsec disk cache",
		Long:  "Remove the cache written by lint --cache ($XDG_CACHE_HOME/rbsec or ~/.cache/rbsec).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			dir, err := driver.DefaultCacheDir("rbsec")
			if err != nil {
				return fmt.Errorf("failed to locate cache: %w", err)
			}
			info, err := os.Stat(dir)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					fmt.Fprintln(out, "cache directory not found")
					return nil
				}
				return fmt.Errorf("failed to stat %q: %w", dir, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%q is not a directory", dir)
			}
			dc, err := driver.OpenDiskCacheAt(dir)
			if err != nil {
				return err
			}
			if err := dc.DropAll(); err != nil {
				return fmt.Errorf("failed to remove %q: %w", dir, err)
			}
			fmt.Fprintf(out, "removed %s\n", dir)
			return nil
		},
	}
}
