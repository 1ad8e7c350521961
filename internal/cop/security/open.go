package security

import (
	"rbsec/internal/cop"
	"rbsec/internal/diag"
)

// Option keys of Security/Open.
const (
	OptDisallowAll            = "DisallowAll"
	OptAllowSafeConcatenation = "AllowSafeConcatenation"
)

// OpenName is the registered name of the cop.
const OpenName = "Security/Open"

// Open flags Kernel#open calls whose path may start with a pipe.
type Open struct{}

func (Open) Name() string { return OpenName }

func (Open) Doc() cop.Doc {
	return cop.Doc{
		Title: "Kernel#open with a possibly pipe-prefixed argument",
		Description: "Kernel#open runs a shell command when its argument starts with \"|\". " +
			"Use File.open, IO.popen or URI.parse(...).open instead.",
		Code: diag.CopSecurityOpen,
		Options: map[string]any{
			OptDisallowAll:            false,
			OptAllowSafeConcatenation: false,
		},
	}
}

// DefaultConfig is the configuration Security/Open ships with.
func DefaultConfig() cop.Config {
	return cop.Config{
		Enabled:  true,
		Severity: diag.SevWarning,
		Options: map[string]any{
			OptDisallowAll:            false,
			OptAllowSafeConcatenation: false,
		},
	}
}

// PolicyFrom reads the policy options out of cfg.
func PolicyFrom(cfg cop.Config) Policy {
	return Policy{
		DisallowAll:            cfg.Bool(OptDisallowAll, false),
		AllowSafeConcatenation: cfg.Bool(OptAllowSafeConcatenation, false),
	}
}

func (Open) Check(site cop.CallSite, cfg cop.Config, r cop.Reporter) {
	if !matches(&site) {
		return
	}
	policy := PolicyFrom(cfg)
	shape := Classify(site.Args, policy.AllowSafeConcatenation)
	if !policy.Offends(shape) {
		return
	}
	emit(&site, shape, cfg.Severity, r)
}

// Register adds every cop of this package to reg.
func Register(reg *cop.Registry) {
	reg.MustRegister(Open{}, DefaultConfig())
}
