// Package trace records what rbsec is doing while it lints.
//
// Enable it from the command line:
//
//	rbsec lint --trace=- --trace-level=detail app/
//
// Levels:
//
//   - LevelOff: no tracing
//   - LevelError: only failures (cop panics, unreadable files)
//   - LevelPhase: the run and its passes (discover, lint, report)
//   - LevelDetail: one span per file
//   - LevelDebug: everything, including per-stage spans inside a file
//
// A Tracer travels in a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.Start(ctx, trace.ScopeFile, path)
//	defer span.End("")
//
// Events emitted under a file span carry its path in Event.File, so a cop
// panic reported at LevelError still names the Ruby file it happened in.
package trace
