package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rbsec/internal/cop"
	"rbsec/internal/diag"
)

// LoadRuboCop reads the parts of a .rubocop.yml that rbsec understands:
// AllCops.Exclude and the per-cop tables ("Security/Open: {...}").
// Everything else, including inherit_from and require, is ignored.
func LoadRuboCop(path string) (*Config, error) {
	// #nosec G304 -- path is a discovered config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: diag.IOLoadFileError, Path: path, Err: err}
	}
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Code: diag.CfgParseError, Path: path, Err: fmt.Errorf("failed to parse YAML: %w", err)}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	cfg := &Config{
		Path:      path,
		Root:      filepath.Dir(abs),
		Format:    FormatRuboCop,
		Overrides: make(map[string]cop.Override),
	}
	for key, node := range raw {
		if key == "AllCops" {
			var all allCops
			if err := node.Decode(&all); err != nil {
				return nil, &Error{Code: diag.CfgBadValue, Path: path, Err: fmt.Errorf("AllCops: %w", err)}
			}
			cfg.Exclude = all.Exclude
			continue
		}
		// cop names are "Department/Name"
		if !strings.Contains(key, "/") || node.Kind != yaml.MappingNode {
			continue
		}
		var table map[string]any
		if err := node.Decode(&table); err != nil {
			return nil, &Error{Code: diag.CfgBadValue, Path: path, Err: fmt.Errorf("%s: %w", key, err)}
		}
		ov, err := overrideFrom(path, key, table)
		if err != nil {
			return nil, err
		}
		cfg.Overrides[key] = ov
	}
	return cfg, nil
}
