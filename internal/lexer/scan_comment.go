package lexer

import (
	"doccheck/internal/source"
	"doccheck/internal/token"
)

// scanSlash handles "//", "/*", regexp literals and the division operator.
func (lx *Lexer) scanSlash() error {
	start := lx.cursor.Mark()
	_, b1, _ := lx.cursor.Peek2()
	switch b1 {
	case '/':
		lx.scanLineComment(start)
		return nil
	case '*':
		return lx.scanBlockComment(start)
	}
	if lx.prev == prevOperand {
		lx.cursor.Bump()
		lx.prev = prevNone
		return nil
	}
	if err := lx.scanRegexp(start); err != nil {
		return err
	}
	lx.prev = prevOperand
	return nil
}

func (lx *Lexer) scanLineComment(start Mark) {
	lx.cursor.Bump()
	lx.cursor.Bump()
	lx.cursor.SkipUntil('\n')
	sp := lx.cursor.SpanFrom(start)
	lx.pushComment(token.TriviaLineComment, sp, sp.Start+2, sp.End)
}

// scanBlockComment scans "/* ... */". Block comments do not nest in TypeScript.
func (lx *Lexer) scanBlockComment(start Mark) error {
	body := uint32(start) + 2
	lx.cursor.Off = body
	bodyEnd, ok := lx.cursor.SkipPast("*/")
	if !ok {
		return lx.errAt(uint32(start), lx.cursor.Limit, "unterminated block comment")
	}

	kind := token.TriviaBlockComment
	if bodyEnd > body && lx.file.Content[body] == '*' {
		kind = token.TriviaDocBlock
	}
	lx.pushComment(kind, lx.cursor.SpanFrom(start), body, bodyEnd)
	return nil
}

func (lx *Lexer) pushComment(kind token.TriviaKind, sp source.Span, bodyStart, bodyEnd uint32) {
	pos := lx.file.Resolve(sp.Start)
	lx.res.Comments = append(lx.res.Comments, token.Trivia{
		Kind: kind,
		Span: sp,
		Text: string(lx.file.Content[bodyStart:bodyEnd]),
		Line: pos.Line,
		Col:  pos.Col,
	})
}
