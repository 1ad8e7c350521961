package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rbsec/internal/cop"
	"rbsec/internal/diag"
)

// ErrUnknownCop is returned when a native config names a cop that is not
// registered.
var ErrUnknownCop = cop.ErrUnknownCop

// ErrExists is returned by Init when the config file is already there.
var ErrExists = errors.New("config already exists")

type Format uint8

const (
	// FormatNone - конфиг не найден, всё по умолчанию
	FormatNone Format = iota
	FormatNative
	FormatRuboCop
)

func (f Format) String() string {
	switch f {
	case FormatNative:
		return "rbsec.toml"
	case FormatRuboCop:
		return ".rubocop.yml"
	}
	return "defaults"
}

// Error is a configuration problem tied to a file.
type Error struct {
	Code diag.Code
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Code.ID(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(code diag.Code, path, format string, args ...any) *Error {
	return &Error{Code: code, Path: path, Err: fmt.Errorf(format, args...)}
}

// Warning is a configuration problem that does not stop the run.
type Warning struct {
	Code    diag.Code
	Path    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Path, w.Code.ID(), w.Message)
}

// Config is a loaded configuration file.
type Config struct {
	Path   string
	Root   string // каталог, относительно которого считаются Exclude
	Format Format
	// Exclude holds slash-separated globs relative to Root; "**" matches
	// any number of path segments.
	Exclude   []string
	Overrides map[string]cop.Override
	Warnings  []Warning
}

// Default is the configuration used when no file is found.
func Default(root string) *Config {
	return &Config{Root: root, Format: FormatNone, Overrides: map[string]cop.Override{}}
}

// Load reads the config at path, picking the format from the file name.
func Load(path string) (*Config, error) {
	if filepath.Base(path) == RuboCopName || strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml") {
		return LoadRuboCop(path)
	}
	return LoadNative(path)
}

// Discover finds and loads the configuration that applies to target, or
// returns the defaults rooted at target's directory.
func Discover(target string) (*Config, error) {
	path, ok, err := Find(target)
	if err != nil {
		return nil, err
	}
	if !ok {
		root, absErr := filepath.Abs(target)
		if absErr != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", target, absErr)
		}
		if info, statErr := os.Stat(root); statErr == nil && !info.IsDir() {
			root = filepath.Dir(root)
		}
		return Default(root), nil
	}
	return Load(path)
}

// Settings resolves the overrides against reg. A native config fails on
// unknown cops and options; a RuboCop config silently skips cops and keys
// rbsec does not implement.
func (c *Config) Settings(reg *cop.Registry) (cop.Settings, error) {
	overrides := c.Overrides
	if c.Format == FormatRuboCop {
		overrides = c.knownOnly(reg)
	}
	settings, err := reg.Resolve(overrides)
	if err != nil {
		code := diag.CfgBadValue
		if errors.Is(err, ErrUnknownCop) {
			code = diag.CfgUnknownCop
		}
		return nil, &Error{Code: code, Path: c.displayPath(), Err: err}
	}
	return settings, nil
}

func (c *Config) knownOnly(reg *cop.Registry) map[string]cop.Override {
	out := make(map[string]cop.Override, len(c.Overrides))
	for name, ov := range c.Overrides {
		impl, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		doc, documented := impl.(cop.Documented)
		if documented && len(ov.Options) > 0 {
			opts := make(map[string]any, len(ov.Options))
			for k, v := range ov.Options {
				if _, known := doc.Doc().Options[k]; known {
					opts[k] = v
				}
			}
			ov.Options = opts
		}
		out[name] = ov
	}
	return out
}

// Excluded reports whether path matches an AllCops exclusion.
func (c *Config) Excluded(path string) bool {
	if len(c.Exclude) == 0 {
		return false
	}
	rel := filepath.ToSlash(path)
	if abs, err := filepath.Abs(path); err == nil && c.Root != "" {
		if r, relErr := filepath.Rel(c.Root, abs); relErr == nil && !strings.HasPrefix(r, "..") {
			rel = filepath.ToSlash(r)
		}
	}
	for _, pattern := range c.Exclude {
		if Match(pattern, rel) {
			return true
		}
	}
	return false
}

// CopNames returns the cop names mentioned by the file, sorted.
func (c *Config) CopNames() []string {
	names := make([]string, 0, len(c.Overrides))
	for name := range c.Overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) displayPath() string {
	if c.Path == "" {
		return "<defaults>"
	}
	return c.Path
}

// overrideFrom splits a cop table into the common keys and cop options.
func overrideFrom(path, name string, table map[string]any) (cop.Override, error) {
	var ov cop.Override
	for key, value := range table {
		switch key {
		case "Enabled":
			b, ok := value.(bool)
			if s, isStr := value.(string); isStr && s == "pending" {
				// RuboCop: новые cops по умолчанию "pending", то есть выключены
				b, ok = false, true
			}
			if !ok {
				return ov, errorf(diag.CfgBadValue, path, "%s: Enabled must be a boolean, got %v", name, value)
			}
			ov.Enabled = &b
		case "Severity":
			s, ok := value.(string)
			if !ok {
				return ov, errorf(diag.CfgBadValue, path, "%s: Severity must be a string, got %v", name, value)
			}
			sev, err := diag.ParseSeverity(s)
			if err != nil {
				return ov, &Error{Code: diag.CfgBadValue, Path: path, Err: fmt.Errorf("%s: %w", name, err)}
			}
			ov.Severity = &sev
		default:
			if ov.Options == nil {
				ov.Options = make(map[string]any)
			}
			ov.Options[key] = value
		}
	}
	return ov, nil
}
