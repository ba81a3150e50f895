// Package diag defines the diagnostic model shared by the lowering passes.
//
// Diagnostic is the central record: a Severity, a stable numeric Code, a short
// message, a primary source.Span and optional notes. Producers emit through the
// Reporter interface; Bag collects, sorts and deduplicates for the CLI.
//
// Codes are grouped by range:
//
//   - 1xxx  input loading (structured program documents)
//   - 4xxx  unsupported constructs rejected while building the block graph
//   - 5xxx  internal invariants of the block graph (compiler bugs)
//   - 6xxx  observability
package diag
