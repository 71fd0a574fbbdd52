// Package diag defines the diagnostic model shared by the bundle loader,
// the region engine, and the output layers.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture
//     findings produced by bundle validation and region analysis.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits that the CLI can materialise
//     and optionally apply.
//
// # Scope
//
// Package diag does not perform any formatting, IO, CLI integration, or
// interactive behaviour. Rendering lives in internal/diagfmt; applying fixes
// lives in internal/fix and the driver layer.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records describing how to address the problem.
//
// Notes should add new context (e.g. "value declared here") rather than
// repeating the diagnostic message. A zero-value note span means the note
// has no source location.
//
// # Fix suggestions
//
// Fix represents a possible automated correction. Each fix carries a Title,
// a Kind, an Applicability confidence level, an optional IsPreferred mark,
// and Edits – concrete text edits (Span + new/old text). A fix may defer
// edit construction to a Thunk; formatters and the fix engine call
// Resolve/MaterializeFixes to expand thunks deterministically. TextEdit's
// OldText is an optional guard the fix engine validates before applying.
//
// # Emitting diagnostics
//
// Producers use a diag.Reporter to decouple emission from storage. The
// region engine constructs a ReportBuilder via NewReportBuilder (or the
// helpers ReportError/ReportWarning/ReportInfo) and chains WithNote /
// WithFixSuggestion before calling Emit. BagReporter aggregates diagnostics
// into a Bag, which supports sorting, deduplication and merging.
//
// # Consumers
//
//   - internal/diagfmt: renders diagnostics as pretty/json/short text.
//   - internal/fix: materialises Fix records and applies edits to files.
//   - internal/driver: collects bags per bundle and hands them to the CLI.
package diag
