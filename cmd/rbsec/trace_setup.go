package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rbsec/internal/trace"
)

type traceFlags struct {
	output string
	level  string
	format string
}

// setupTracing reads the trace flags, attaches a tracer to the command
// context and registers its flush as a cleanup.
func (g *globals) setupTracing(cmd *cobra.Command) error {
	level, err := trace.ParseLevel(g.trace.level)
	if err != nil {
		return err
	}
	format, err := trace.ParseFormat(g.trace.format)
	if err != nil {
		return err
	}
	if level == trace.LevelOff && g.trace.output != "" {
		// --trace без уровня означает phase
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}

	cfg := trace.Config{Level: level, Format: format, OutputPath: g.trace.output}
	if g.trace.output == "" || g.trace.output == "-" {
		cfg.Output = cmd.ErrOrStderr()
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	span, ctx := trace.Start(ctx, trace.ScopeRun, cmd.CommandPath())
	cmd.SetContext(ctx)

	g.cleanup = append(g.cleanup, func(stderr io.Writer) {
		span.End("")
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(stderr, "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(stderr, "trace: close error: %v\n", err)
		}
	})
	return nil
}
