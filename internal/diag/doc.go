// Package diag defines the diagnostic model shared by the extractor, the check
// engines, the remapper and the reporting layers.
//
// # Data model
//
// Message is what a check engine reports against one document. It mirrors the
// shape lint engines commonly use:
//
//   - RuleID, MessageID, Severity, Text: opaque pass-through fields. The
//     remapper never reads or changes them.
//   - Line, Column, EndLine, EndColumn: 1-based positions. EndLine is 0 when
//     the engine did not report an end position.
//   - Fix: optional replacement of the byte range [Range[0], Range[1]) with
//     Text. Offsets are 0-based bytes in the document the message belongs to.
//   - Suggestions: optional alternative fixes that are never applied
//     automatically.
//
// Diagnostic binds a Message to the real file path it is reported against.
// Once a Message leaves the remapper, every positional field is expressed in
// the coordinate space of that real file.
//
// # Emitting diagnostics
//
// Producers should use a Reporter instead of writing to a Bag directly:
// BagReporter aggregates into a Bag, DedupReporter drops exact repeats before
// forwarding. Bag supports sorting, filtering and counting.
//
// Package diag does not perform any formatting or IO. Rendering lives in
// internal/diagfmt, applying fixes in internal/fix.
package diag
