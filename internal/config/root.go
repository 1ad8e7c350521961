package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File names searched for, in order of preference within one directory.
const (
	NativeName  = "rbsec.toml"
	RuboCopName = ".rubocop.yml"
)

// Find walks up from startDir to locate a configuration file. In each
// directory rbsec.toml wins over .rubocop.yml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		for _, name := range []string{NativeName, RuboCopName} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}
