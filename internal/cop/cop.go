package cop

import (
	"fmt"
	"strconv"
	"strings"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

// Cop checks call sites. Implementations must be stateless: Check may run
// on many goroutines at once.
type Cop interface {
	Name() string
	Check(site CallSite, cfg Config, r Reporter)
}

// Doc describes a cop for listings and SARIF rule metadata.
type Doc struct {
	Title       string
	Description string
	Code        diag.Code
	// Options maps every accepted option key to its default value.
	Options map[string]any
}

// Documented is implemented by cops that carry a Doc.
type Documented interface {
	Doc() Doc
}

// Config is the effective configuration of one cop.
type Config struct {
	Enabled  bool
	Severity diag.Severity
	Options  map[string]any
}

// Bool returns the boolean option key, or def when it is unset.
// Strings "true"/"false" from flat config formats are accepted too.
func (c Config) Bool(key string, def bool) bool {
	v, ok := c.Options[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	}
	return def
}

// With returns a copy of c with key set to value.
func (c Config) With(key string, value any) Config {
	c = c.clone()
	c.Options[key] = value
	return c
}

func (c Config) clone() Config {
	opts := make(map[string]any, len(c.Options)+1)
	for k, v := range c.Options {
		opts[k] = v
	}
	c.Options = opts
	return c
}

// Offense is a finding produced by a cop for one call site.
type Offense struct {
	Span     source.Span
	Message  string
	Severity diag.Severity
	Code     diag.Code
	Notes    []diag.Note
	Fixes    []*diag.Fix
}

// Reporter receives offenses from cops.
type Reporter interface {
	Offense(o Offense)
}

// diagReporter adapts a diag.Reporter, stamping the cop name on every
// diagnostic.
type diagReporter struct {
	rule string
	out  diag.Reporter
	n    int
}

func (r *diagReporter) Offense(o Offense) {
	code := o.Code
	if code == diag.UnknownCode {
		code = diag.CopInfo
	}
	diag.Forward(r.out, diag.Diagnostic{
		Severity: o.Severity,
		Code:     code,
		Message:  o.Message,
		Primary:  o.Span,
		Notes:    o.Notes,
		Fixes:    o.Fixes,
		Rule:     r.rule,
	})
	r.n++
}

// ValidateOptions checks cfg's option keys against the cop's Doc. Cops
// without a Doc accept anything.
func ValidateOptions(c Cop, cfg Config) error {
	d, ok := c.(Documented)
	if !ok {
		return nil
	}
	for key := range cfg.Options {
		if _, known := d.Doc().Options[key]; !known {
			return fmt.Errorf("%s: unknown option %q", c.Name(), key)
		}
	}
	return nil
}
