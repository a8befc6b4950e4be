// Package lexer scans TypeScript and JavaScript sources for comments.
//
// It is not a tokenizer: it only tracks enough of the language (strings,
// template literals with nested ${} expressions, regular expression literals)
// to avoid reporting comment delimiters that live inside literals.
package lexer

import (
	"fmt"

	"doccheck/internal/source"
	"doccheck/internal/token"
)

// Result holds every comment and literal region of one file, in source order.
type Result struct {
	Comments []token.Trivia
	Literals []token.Literal
}

// Error is a fatal scanning failure: the file cannot be split into comments and code.
type Error struct {
	Span source.Span
	Pos  source.LineCol
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

// prevKind classifies the last significant token for regexp detection.
type prevKind uint8

const (
	prevNone prevKind = iota // start of file or after an operator
	prevOperand              // identifier, number, literal, ')' or ']'
)

// keywords after which '/' starts a regular expression rather than a division.
var regexpKeywords = map[string]struct{}{
	"return": {}, "typeof": {}, "instanceof": {}, "in": {}, "of": {}, "new": {},
	"delete": {}, "void": {}, "throw": {}, "case": {}, "do": {}, "else": {},
	"yield": {}, "await": {},
}

type Lexer struct {
	file   *source.File
	cursor Cursor
	res    Result
	prev   prevKind
	depth  int   // current brace depth
	tmpl   []int // brace depth at which each open template expression resumes
}

// New creates a lexer for file.
func New(file *source.File) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
	}
}

// Scan lexes file and returns its comments and literals.
func Scan(file *source.File) (*Result, error) {
	return New(file).Run()
}

// Run scans to EOF. The first unterminated construct aborts the scan.
func (lx *Lexer) Run() (*Result, error) {
	lx.skipHashbang()
	for !lx.cursor.EOF() {
		if err := lx.step(); err != nil {
			return nil, err
		}
	}
	if len(lx.tmpl) > 0 {
		return nil, lx.errAt(lx.cursor.Off, lx.cursor.Off, "unterminated template expression")
	}
	res := lx.res
	return &res, nil
}

func (lx *Lexer) skipHashbang() {
	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '#' && b1 == '!' {
		lx.cursor.SkipUntil('\n')
	}
}

func (lx *Lexer) step() error {
	b := lx.cursor.Peek()
	switch {
	case b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v':
		lx.cursor.Bump()
		return nil

	case b == '/':
		return lx.scanSlash()

	case b == '"' || b == '\'':
		if err := lx.scanString(b); err != nil {
			return err
		}
		lx.prev = prevOperand
		return nil

	case b == '`':
		lx.cursor.Bump()
		if err := lx.scanTemplate(lx.cursor.Mark() - 1); err != nil {
			return err
		}
		return nil

	case isIdentByte(b):
		lx.scanWord()
		return nil

	case b == '{':
		lx.cursor.Bump()
		lx.depth++
		lx.prev = prevNone
		return nil

	case b == '}':
		lx.cursor.Bump()
		if n := len(lx.tmpl); n > 0 && lx.tmpl[n-1] == lx.depth {
			lx.tmpl = lx.tmpl[:n-1]
			lx.depth--
			return lx.scanTemplate(lx.cursor.Mark() - 1)
		}
		lx.depth--
		// a closing brace usually ends a block statement, after which '/' starts a regexp
		lx.prev = prevNone
		return nil

	case b == ')' || b == ']':
		lx.cursor.Bump()
		lx.prev = prevOperand
		return nil

	default:
		lx.cursor.Bump()
		lx.prev = prevNone
		return nil
	}
}

func (lx *Lexer) scanWord() {
	start := lx.cursor.Mark()
	lx.cursor.SkipWhile(isIdentByte)
	word := string(lx.cursor.Since(start))
	if _, ok := regexpKeywords[word]; ok {
		lx.prev = prevNone
		return
	}
	lx.prev = prevOperand
}

func (lx *Lexer) errAt(start, end uint32, msg string) *Error {
	return &Error{
		Span: source.Span{File: lx.file.ID, Start: start, End: end},
		Pos:  lx.file.Resolve(start),
		Msg:  msg,
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
