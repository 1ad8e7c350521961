package driver

import (
	"errors"
	"fmt"
	"strings"

	"rbsec/internal/config"
	"rbsec/internal/cop"
)

// LintStage определяет, до какого этапа доходит проверка
type LintStage string

const (
	LintStageTokenize LintStage = "tokenize"
	LintStageSyntax   LintStage = "syntax"
	LintStageLint     LintStage = "lint"
)

// ParseLintStage accepts tokenize|syntax|lint; empty means lint.
func ParseLintStage(s string) (LintStage, error) {
	switch LintStage(strings.ToLower(strings.TrimSpace(s))) {
	case "", LintStageLint, "all":
		return LintStageLint, nil
	case LintStageSyntax, "parse":
		return LintStageSyntax, nil
	case LintStageTokenize, "lex":
		return LintStageTokenize, nil
	}
	return "", fmt.Errorf("unknown stage %q (want tokenize|syntax|lint)", s)
}

var errNoRegistry = errors.New("driver: no cop registry")

// Options control a lint run.
type Options struct {
	Registry *cop.Registry
	// Settings overrides the settings derived from Config when non-nil.
	Settings cop.Settings
	// Config supplies excludes and the cache fingerprint; nil means defaults.
	Config         *config.Config
	Stage          LintStage
	MaxDiagnostics int
	Cache          *DiskCache
	Progress       ProgressSink
	Timings        bool
	// KeepAST keeps the parsed tree on FileResult for dumps and fixes.
	KeepAST bool
}

// resolve fills in defaults and returns the effective cop settings.
func (o *Options) resolve() (cop.Settings, error) {
	if o.Stage == "" {
		o.Stage = LintStageLint
	}
	if o.Registry == nil {
		if o.Stage == LintStageLint {
			return nil, errNoRegistry
		}
		return nil, nil
	}
	if o.Settings != nil {
		return o.Settings, nil
	}
	if o.Config != nil {
		return o.Config.Settings(o.Registry)
	}
	return o.Registry.Resolve(nil)
}

// fingerprint ties cached findings to the configuration that produced them.
func (o *Options) fingerprint(settings cop.Settings) config.Digest {
	cfg := o.Config
	if cfg == nil {
		cfg = config.Default("")
	}
	return cfg.Fingerprint(settings)
}
