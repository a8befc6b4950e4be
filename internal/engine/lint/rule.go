package lint

import (
	"doccheck/internal/codeblock"
	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// Rule is a single lint check.
type Rule interface {
	ID() string
	Description() string
	DefaultSeverity() diag.Severity
	Check(ctx *Context)
}

// Context is handed to a rule for one document. Code is the document text
// with comment and literal bytes blanked, so byte offsets match Doc.Text.
type Context struct {
	Doc  codeblock.Document
	File *source.File
	Code string

	rule     Rule
	severity diag.Severity
	out      []diag.Message
}

// Report records a finding over the byte range [start, end) of the document.
func (c *Context) Report(start, end int, text string, fix *diag.Fix, suggestions ...diag.Suggestion) {
	from := c.File.Resolve(uint32(start)) //nolint:gosec // offsets come from the document
	to := c.File.Resolve(uint32(end))     //nolint:gosec // offsets come from the document
	c.out = append(c.out, diag.Message{
		RuleID:      c.rule.ID(),
		Severity:    c.severity,
		Text:        text,
		Line:        int(from.Line),
		Column:      int(from.Col),
		EndLine:     int(to.Line),
		EndColumn:   int(to.Col),
		Fix:         fix,
		Suggestions: suggestions,
	})
}
