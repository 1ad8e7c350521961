package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"rbsec/internal/config"
	"rbsec/internal/cop"
	"rbsec/internal/cop/security"
	"rbsec/internal/prof"
)

// globals holds the persistent flags and what they set up for one run.
type globals struct {
	color          string
	maxDiagnostics int
	timings        bool
	configPath     string
	disallowAll    bool
	trace          traceFlags
	profile        prof.Options

	cleanup []func(io.Writer)
}

// bindFlags registers the persistent flags on pf.
func (g *globals) bindFlags(pf *pflag.FlagSet) {
	pf.StringVar(&g.color, "color", "auto", "colorize output (auto|on|off)")
	pf.IntVar(&g.maxDiagnostics, "max-diagnostics", 100, "maximum number of diagnostics to collect")
	pf.BoolVar(&g.timings, "timings", false, "print stage timings to stderr")
	pf.StringVar(&g.configPath, "config", "", "path to rbsec.toml or .rubocop.yml (default: discovered from the target)")
	pf.BoolVar(&g.disallowAll, "disallow-all", false, "flag every Kernel#open call, literal arguments included")
	pf.StringVar(&g.trace.output, "trace", "", "write trace events to file (- for stderr)")
	pf.StringVar(&g.trace.level, "trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.StringVar(&g.trace.format, "trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.StringVar(&g.profile.CPU, "cpu-profile", "", "write CPU profile to file")
	pf.StringVar(&g.profile.Mem, "mem-profile", "", "write heap profile to file on exit")
	pf.StringVar(&g.profile.Trace, "runtime-trace", "", "write Go runtime trace to file")
	pf.SortFlags = false
}

// setup validates the persistent flags and starts tracing and profiling.
func (g *globals) setup(cmd *cobra.Command) error {
	switch g.color {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !g.useColor(cmd.OutOrStdout())
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", g.color)
	}
	if g.maxDiagnostics < 0 {
		return fmt.Errorf("--max-diagnostics must not be negative")
	}
	if err := g.setupTracing(cmd); err != nil {
		return err
	}
	return g.setupProfiling()
}

// teardown runs the cleanups in reverse order. Safe to call more than once.
func (g *globals) teardown(stderr io.Writer) {
	for i := len(g.cleanup) - 1; i >= 0; i-- {
		g.cleanup[i](stderr)
	}
	g.cleanup = nil
}

// useColor decides whether w gets ANSI colors.
func (g *globals) useColor(w io.Writer) bool {
	switch g.color {
	case "on":
		return true
	case "off":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(w)
}

// isTerminal проверяет, является ли writer терминалом
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// registry returns the registry with every built-in cop.
func registry() *cop.Registry {
	reg := cop.NewRegistry()
	security.Register(reg)
	return reg
}

// loadConfig loads --config or discovers the config for target, applies
// --disallow-all and prints config warnings to stderr.
func (g *globals) loadConfig(cmd *cobra.Command, target string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.Discover(target)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	for _, w := range cfg.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	if g.disallowAll {
		overrideOption(cfg, security.OpenName, security.OptDisallowAll, true)
	}
	return cfg, nil
}

// overrideOption sets one cop option on top of what the file says.
func overrideOption(cfg *config.Config, name, key string, value any) {
	if cfg.Overrides == nil {
		cfg.Overrides = map[string]cop.Override{}
	}
	ov := cfg.Overrides[name]
	opts := make(map[string]any, len(ov.Options)+1)
	for k, v := range ov.Options {
		opts[k] = v
	}
	opts[key] = value
	ov.Options = opts
	cfg.Overrides[name] = ov
}

func parseFormat(value string, allowed ...string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if format == a {
			return format, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (must be %s)", value, strings.Join(allowed, "|"))
}
