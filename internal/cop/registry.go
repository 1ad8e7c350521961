package cop

import (
	"errors"
	"fmt"
	"sort"

	"rbsec/internal/diag"
)

// ErrUnknownCop is returned when configuration names a cop that is not
// registered.
var ErrUnknownCop = errors.New("unknown cop")

// Override is a partial cop configuration read from a config file or the
// command line. Nil fields keep the default.
type Override struct {
	Enabled  *bool
	Severity *diag.Severity
	Options  map[string]any
}

// Settings maps cop names to their effective configuration.
type Settings map[string]Config

// Enabled reports whether the named cop is switched on.
func (s Settings) Enabled(name string) bool {
	cfg, ok := s[name]
	return ok && cfg.Enabled
}

type entry struct {
	cop      Cop
	defaults Config
}

// Registry holds the known cops by name.
type Registry struct {
	entries []entry
	byName  map[string]int
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds c with its default configuration.
func (r *Registry) Register(c Cop, defaults Config) error {
	name := c.Name()
	if name == "" {
		return fmt.Errorf("cop with empty name")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("cop %q registered twice", name)
	}
	if err := ValidateOptions(c, defaults); err != nil {
		return err
	}
	r.byName[name] = len(r.entries)
	r.entries = append(r.entries, entry{cop: c, defaults: defaults})
	return nil
}

// MustRegister is Register for package init code.
func (r *Registry) MustRegister(c Cop, defaults Config) {
	if err := r.Register(c, defaults); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Cop, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.entries[i].cop, true
}

// Defaults returns the registered default configuration of name.
func (r *Registry) Defaults(name string) (Config, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Config{}, false
	}
	return r.entries[i].defaults, true
}

// Names returns the registered cop names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.cop.Name())
	}
	sort.Strings(names)
	return names
}

// Cops returns the cops in registration order.
func (r *Registry) Cops() []Cop {
	out := make([]Cop, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.cop)
	}
	return out
}

// Resolve merges overrides into the defaults. Overrides for unknown cops
// and unknown option keys are errors.
func (r *Registry) Resolve(overrides map[string]Override) (Settings, error) {
	out := make(Settings, len(r.entries))
	for _, e := range r.entries {
		out[e.cop.Name()] = e.defaults.clone()
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		i, ok := r.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownCop, name)
		}
		ov := overrides[name]
		cfg := out[name]
		if ov.Enabled != nil {
			cfg.Enabled = *ov.Enabled
		}
		if ov.Severity != nil {
			cfg.Severity = *ov.Severity
		}
		for k, v := range ov.Options {
			cfg = cfg.With(k, v)
		}
		if err := ValidateOptions(r.entries[i].cop, cfg); err != nil {
			return nil, err
		}
		out[name] = cfg
	}
	return out, nil
}
