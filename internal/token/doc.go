// Package token defines the comment and literal regions that the lexer finds
// in TypeScript and JavaScript sources.
// Invariants:
//   - Span covers the whole region including delimiters.
//   - Trivia.Text is the comment body without delimiters, a slice of the source.
//   - Line and Col refer to the first delimiter byte (1-based).
package token
