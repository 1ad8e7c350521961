package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"rbsec/internal/cop"
	"rbsec/internal/diag"
)

type nativeFile struct {
	AllCops allCops                   `toml:"AllCops"`
	Cops    map[string]map[string]any `toml:"cops"`
}

type allCops struct {
	Exclude []string `toml:"Exclude" yaml:"Exclude"`
}

// LoadNative parses an rbsec.toml file. Keys the decoder did not consume
// become warnings.
func LoadNative(path string) (*Config, error) {
	var raw nativeFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, &Error{Code: diag.CfgParseError, Path: path, Err: fmt.Errorf("failed to parse TOML: %w", err)}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	cfg := &Config{
		Path:      path,
		Root:      filepath.Dir(abs),
		Format:    FormatNative,
		Exclude:   raw.AllCops.Exclude,
		Overrides: make(map[string]cop.Override, len(raw.Cops)),
	}
	for _, key := range meta.Undecoded() {
		cfg.Warnings = append(cfg.Warnings, Warning{
			Code:    diag.CfgUnknownKey,
			Path:    path,
			Message: fmt.Sprintf("unknown key %q", key.String()),
		})
	}
	for name, table := range raw.Cops {
		ov, err := overrideFrom(path, name, table)
		if err != nil {
			return nil, err
		}
		cfg.Overrides[name] = ov
	}
	return cfg, nil
}
