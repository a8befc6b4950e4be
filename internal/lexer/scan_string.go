package lexer

import (
	"doccheck/internal/token"
)

// scanString scans a '...' or "..." literal. A raw newline ends it with an error;
// a backslash escapes the next byte, which covers line continuations.
func (lx *Lexer) scanString(quote byte) error {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		b := lx.cursor.Bump()
		switch b {
		case quote:
			lx.pushLiteral(token.StringLit, start)
			return nil
		case '\\':
			lx.cursor.Bump()
		case '\n':
			return lx.errAt(uint32(start), lx.cursor.Off-1, "unterminated string literal")
		}
	}
	return lx.errAt(uint32(start), lx.cursor.Off, "unterminated string literal")
}

// scanTemplate scans template text starting right after '`' or the '}' that
// closes a ${} expression, up to the closing '`' or the next "${".
func (lx *Lexer) scanTemplate(start Mark) error {
	for !lx.cursor.EOF() {
		b := lx.cursor.Bump()
		switch b {
		case '`':
			lx.pushLiteral(token.TemplateLit, start)
			lx.prev = prevOperand
			return nil
		case '\\':
			lx.cursor.Bump()
		case '$':
			if lx.cursor.Eat('{') {
				lx.pushLiteral(token.TemplateLit, start)
				lx.depth++
				lx.tmpl = append(lx.tmpl, lx.depth)
				lx.prev = prevNone
				return nil
			}
		}
	}
	return lx.errAt(uint32(start), lx.cursor.Off, "unterminated template literal")
}

// scanRegexp scans /body/flags. Slashes inside [...] classes do not terminate.
func (lx *Lexer) scanRegexp(start Mark) error {
	lx.cursor.Bump()
	inClass := false
	for !lx.cursor.EOF() {
		b := lx.cursor.Bump()
		switch {
		case b == '\\':
			if lx.cursor.Peek() == '\n' {
				return lx.errAt(uint32(start), lx.cursor.Off, "unterminated regular expression")
			}
			lx.cursor.Bump()
		case b == '\n':
			return lx.errAt(uint32(start), lx.cursor.Off-1, "unterminated regular expression")
		case b == '[':
			inClass = true
		case b == ']':
			inClass = false
		case b == '/' && !inClass:
			for !lx.cursor.EOF() && isIdentByte(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			lx.pushLiteral(token.RegexpLit, start)
			return nil
		}
	}
	return lx.errAt(uint32(start), lx.cursor.Off, "unterminated regular expression")
}

func (lx *Lexer) pushLiteral(kind token.LiteralKind, start Mark) {
	lx.res.Literals = append(lx.res.Literals, token.Literal{
		Kind: kind,
		Span: lx.cursor.SpanFrom(start),
	})
}
