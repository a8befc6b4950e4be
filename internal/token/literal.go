package token

import "doccheck/internal/source"

type LiteralKind uint8

const (
	StringLit LiteralKind = iota
	TemplateLit
	RegexpLit
)

// Literal marks a string, template or regular expression region.
// Template spans cover only the raw text parts, never the ${} expressions.
type Literal struct {
	Kind LiteralKind
	Span source.Span
}
