// Package syntax checks documents by transpiling them with esbuild.
// Every esbuild error or warning becomes a message at the reported position.
package syntax

import (
	"context"
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"doccheck/internal/codeblock"
	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// RuleID is the rule id of every message produced here.
const RuleID = "esbuild"

type Engine struct {
	// SkipHost leaves the real file unchecked.
	SkipHost bool
	// Warnings controls whether esbuild warnings are reported.
	Warnings bool
	Target   api.Target
}

// New returns an engine that reports warnings and targets ESNext.
func New() *Engine {
	return &Engine{Warnings: true, Target: api.ESNext}
}

func (e *Engine) Name() string {
	return "syntax"
}

func (e *Engine) Check(ctx context.Context, docs []codeblock.Document) ([][]diag.Message, error) {
	out := make([][]diag.Message, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.SkipHost && !doc.IsVirtual() {
			continue
		}
		out[i] = e.checkDocument(doc)
	}
	return out, nil
}

func (e *Engine) checkDocument(doc codeblock.Document) []diag.Message {
	result := api.Transform(doc.Text, api.TransformOptions{
		Loader:     LoaderFor(doc.Name),
		Sourcefile: doc.Name,
		Target:     e.Target,
		LogLevel:   api.LogLevelSilent,
	})

	var file *source.File
	msgs := make([]diag.Message, 0, len(result.Errors)+len(result.Warnings))
	for _, m := range result.Errors {
		msgs = append(msgs, convert(m, diag.SevError, doc, &file))
	}
	if e.Warnings {
		for _, m := range result.Warnings {
			msgs = append(msgs, convert(m, diag.SevWarning, doc, &file))
		}
	}
	return msgs
}

// convert maps an esbuild message. esbuild lines are 1-based and columns are
// 0-based byte offsets; messages use 1-based columns. A location suggestion
// becomes a Suggestion over the reported range.
func convert(m api.Message, sev diag.Severity, doc codeblock.Document, file **source.File) diag.Message {
	out := diag.Message{
		RuleID:    RuleID,
		MessageID: m.ID,
		Severity:  sev,
		Text:      m.Text,
		Line:      1,
		Column:    1,
	}
	loc := m.Location
	if loc == nil {
		return out
	}
	out.Line = loc.Line
	out.Column = loc.Column + 1
	out.EndLine = loc.Line
	out.EndColumn = loc.Column + 1 + loc.Length

	if loc.Suggestion != "" {
		if *file == nil {
			*file = doc.File()
		}
		start, ok := (*file).Offset(source.LineCol{Line: uint32(loc.Line), Col: uint32(loc.Column + 1)}) //nolint:gosec // esbuild positions are small
		if ok {
			out.Suggestions = append(out.Suggestions, diag.Suggestion{
				Desc: "Replace with " + quote(loc.Suggestion),
				Fix: diag.Fix{
					Range: [2]int{int(start), int(start) + loc.Length},
					Text:  loc.Suggestion,
				},
			})
		}
	}
	return out
}

// LoaderFor picks the esbuild loader from a file name.
func LoaderFor(name string) api.Loader {
	switch strings.ToLower(path.Ext(name)) {
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	case ".js", ".mjs", ".cjs":
		return api.LoaderJS
	default:
		return api.LoaderTS
	}
}

func quote(s string) string {
	return "\"" + s + "\""
}
