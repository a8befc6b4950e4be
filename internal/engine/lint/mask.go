package lint

import (
	"doccheck/internal/lexer"
	"doccheck/internal/source"
	"doccheck/internal/token"
)

// mask returns the content of file with every comment and literal byte
// replaced by a space. Newlines are kept so line numbers stay valid.
func mask(file *source.File, res *lexer.Result) string {
	buf := append([]byte(nil), file.Content...)
	blank := func(sp source.Span) {
		end := min(sp.End, uint32(len(buf))) //nolint:gosec // bounded by file size
		for i := sp.Start; i < end; i++ {
			if buf[i] != '\n' {
				buf[i] = ' '
			}
		}
	}
	for _, c := range res.Comments {
		blank(c.Span)
	}
	for _, l := range res.Literals {
		if l.Kind == token.TemplateLit || l.Kind == token.StringLit || l.Kind == token.RegexpLit {
			blank(l.Span)
		}
	}
	return string(buf)
}
