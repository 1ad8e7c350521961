package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"rbsec/internal/cop"
)

const initHeader = `# rbsec configuration.
# Exclude globs are relative to this file; "**" matches any number of
# directories. Cop tables accept Enabled, Severity (info|warning|error)
# and the options listed by "rbsec cops".

`

// DefaultExclude is written by Init.
var DefaultExclude = []string{"vendor/**", "node_modules/**", "tmp/**"}

// Init writes an rbsec.toml with every registered cop and its defaults
// into dir. An existing file is kept unless force is set.
func Init(dir string, reg *cop.Registry, force bool) (string, error) {
	target := filepath.Join(dir, NativeName)
	if _, err := os.Stat(target); err == nil && !force {
		return target, fmt.Errorf("%s: %w", target, ErrExists)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return target, fmt.Errorf("failed to stat %q: %w", target, err)
	}

	cops := make(map[string]any)
	for _, name := range reg.Names() {
		defaults, _ := reg.Defaults(name)
		table := map[string]any{
			"Enabled":  defaults.Enabled,
			"Severity": defaults.Severity.Label(),
		}
		for k, v := range defaults.Options {
			table[k] = v
		}
		cops[name] = table
	}
	data := map[string]any{
		"AllCops": map[string]any{"Exclude": DefaultExclude},
		"cops":    cops,
	}

	var buf bytes.Buffer
	buf.WriteString(initHeader)
	if err := toml.NewEncoder(&buf).Encode(data); err != nil {
		return target, fmt.Errorf("%s: failed to encode TOML: %w", target, err)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o600); err != nil {
		return target, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return target, nil
}
