package diagfmt

import (
	"encoding/json"
	"io"
	"strings"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// PositionJSON представляет диапазон строк и колонок (1-based, байты).
type PositionJSON struct {
	Line      int `json:"line"`
	Column    int `json:"column"`
	EndLine   int `json:"endLine,omitempty"`
	EndColumn int `json:"endColumn,omitempty"`
}

// FixJSON is one byte-range replacement. Range counts bytes of the file as
// stored on disk, BOM and CRLF endings included.
type FixJSON struct {
	Range       [2]int   `json:"range"`
	Text        string   `json:"text"`
	BeforeLines []string `json:"beforeLines,omitempty"`
	AfterLines  []string `json:"afterLines,omitempty"`
}

// SuggestionJSON is a fix offered for manual review.
type SuggestionJSON struct {
	Desc string  `json:"desc"`
	Fix  FixJSON `json:"fix"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Path        string           `json:"path"`
	Severity    string           `json:"severity"`
	RuleID      string           `json:"ruleId,omitempty"`
	MessageID   string           `json:"messageId,omitempty"`
	Message     string           `json:"message"`
	Position    PositionJSON     `json:"position"`
	Fix         *FixJSON         `json:"fix,omitempty"`
	Suggestions []SuggestionJSON `json:"suggestions,omitempty"`
}

// DiagnosticsOutput is the root of the JSON report.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, lookup SourceLookup, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}

	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, maxItems)}
	for _, d := range items[:maxItems] {
		dj := DiagnosticJSON{
			Path:      opts.PathMode.format(d.Path, opts.BaseDir),
			Severity:  strings.ToLower(d.Severity.String()),
			RuleID:    d.RuleID,
			MessageID: d.MessageID,
			Message:   d.Text,
			Position: PositionJSON{
				Line:      d.Line,
				Column:    d.Column,
				EndLine:   d.EndLine,
				EndColumn: d.EndColumn,
			},
		}
		if opts.IncludeFixes {
			if d.Fix != nil {
				fj := makeFix(d.Path, *d.Fix, lookup, opts.IncludePreviews)
				dj.Fix = &fj
			}
			for _, s := range d.Suggestions {
				dj.Suggestions = append(dj.Suggestions, SuggestionJSON{
					Desc: s.Desc,
					Fix:  makeFix(d.Path, s.Fix, lookup, opts.IncludePreviews),
				})
			}
		}
		switch d.Severity {
		case diag.SevError:
			out.Errors++
		case diag.SevWarning:
			out.Warnings++
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

func makeFix(path string, fix diag.Fix, lookup SourceLookup, previews bool) FixJSON {
	var file *source.File
	if lookup != nil {
		file = lookup(path)
	}
	disk := diskFix(file, fix)
	fj := FixJSON{Range: disk.Range, Text: disk.Text}
	if previews && file != nil {
		if preview, err := buildFixEditPreview(file, fix); err == nil {
			fj.BeforeLines = preview.before
			fj.AfterLines = preview.after
		}
	}
	return fj
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, lookup SourceLookup, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, lookup, opts))
}
