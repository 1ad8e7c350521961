// Package diag defines the diagnostic model shared by the lexer, parser,
// cops, configuration loader and driver.
//
// # Scope
//
// Package diag does not format or print anything. Rendering lives in
// internal/diagfmt; applying fixes lives in internal/fix.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error.
//   - Code: numeric identifier with a stable string form (LEX1001, COP4001).
//   - Message: short human text. Cop messages are fixed strings that
//     downstream tooling matches verbatim.
//   - Primary: the source.Span the diagnostic points at.
//   - Notes: secondary spans with extra context.
//   - Fixes: optional suggested edits.
//   - Rule: the cop name for rule findings.
//
// # Fix suggestions
//
// Fix carries a Title, a Kind, an Applicability (AlwaysSafe,
// SafeWithHeuristics, ManualReview), IsPreferred, and either concrete Edits
// or a lazy Thunk. MaterializeFixes expands thunks deterministically.
// TextEdit.OldText, when set, guards an edit against stale content.
//
// # Emitting
//
// Producers talk to a Reporter. ReportBuilder (NewReportBuilder,
// ReportError, ReportWarning, ReportInfo) chains notes, rule attribution and
// fixes before Emit. BagReporter stores into a Bag; DedupReporter drops
// repeats. A Bag is not safe for concurrent use: the driver keeps one per
// file and merges them after fan-in.
package diag
