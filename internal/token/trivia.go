package token

import "doccheck/internal/source"

type TriviaKind uint8

const (
	TriviaLineComment  TriviaKind = iota // "// ..."
	TriviaBlockComment                   // "/* ... */"
	TriviaDocBlock                       // "/** ... */"
)

// Trivia is one comment found in a source file.
type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string // body without "//", "/*" or "*/"
	Line uint32
	Col  uint32
}

// IsBlock reports whether the comment uses /* */ delimiters.
func (t Trivia) IsBlock() bool {
	return t.Kind == TriviaBlockComment || t.Kind == TriviaDocBlock
}

// IsDoc reports whether the comment is a documentation block: its body starts with '*'.
func (t Trivia) IsDoc() bool {
	return t.Kind == TriviaDocBlock
}

func (k TriviaKind) String() string {
	switch k {
	case TriviaLineComment:
		return "LineComment"
	case TriviaBlockComment:
		return "BlockComment"
	case TriviaDocBlock:
		return "DocBlock"
	default:
		return "Unknown"
	}
}
