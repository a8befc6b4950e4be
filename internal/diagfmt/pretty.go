package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, path, rule, gutter, caret, fix *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		path:   color.New(color.Bold),
		rule:   color.New(color.Faint),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		fix:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.path, p.rule, p.gutter, p.caret, p.fix} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes diagnostics in a human-readable form. Items are expected to
// be sorted. For each diagnostic it prints
//
//	<path>:<line>:<col>: <SEV> <rule>: <message>
//
// followed by the source line with a caret underline when the file is known.
func Pretty(w io.Writer, bag *diag.Bag, lookup SourceLookup, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := prettyOne(w, d, lookup, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d diag.Diagnostic, lookup SourceLookup, opts PrettyOpts, p palette) error {
	header := fmt.Sprintf("%s %s",
		p.path.Sprintf("%s:%d:%d:", opts.PathMode.format(d.Path, opts.BaseDir), d.Line, d.Column),
		p.severity(d.Severity).Sprint(d.Severity.String()))
	if d.RuleID != "" {
		header += " " + p.rule.Sprint(d.RuleID) + ":"
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", header, d.Text); err != nil {
		return err
	}

	var file *source.File
	if lookup != nil {
		file = lookup(d.Path)
	}
	if file != nil {
		if line, err := safecast.Conv[uint32](d.Line); err == nil && line > 0 && line <= file.LineCount() {
			if err := snippet(w, file, d.Message, opts.Context, p); err != nil {
				return err
			}
		}
	}

	if opts.ShowFixes {
		if d.Fix != nil {
			if _, err := fmt.Fprintf(w, "  %s %s\n", p.fix.Sprint("= fix:"), describeFix(*d.Fix)); err != nil {
				return err
			}
		}
		for _, s := range d.Suggestions {
			if _, err := fmt.Fprintf(w, "  %s %s (%s)\n", p.fix.Sprint("= suggestion:"), s.Desc, describeFix(s.Fix)); err != nil {
				return err
			}
		}
	}
	return nil
}

func snippet(w io.Writer, file *source.File, m diag.Message, context int, p palette) error {
	first := max(m.Line-context, 1)
	gutterWidth := len(strconv.Itoa(m.Line))
	for ln := first; ln <= m.Line; ln++ {
		text := expandTabs(lineText(file, ln))
		if _, err := fmt.Fprintf(w, " %s %s\n", p.gutter.Sprintf("%*d |", gutterWidth, ln), text); err != nil {
			return err
		}
	}

	line := lineText(file, m.Line)
	start := clampCol(m.Column, line)
	end := len(line)
	if m.EndLine == m.Line && m.EndColumn > m.Column {
		end = clampCol(m.EndColumn, line)
	} else if m.EndLine <= m.Line {
		end = start + 1
	}
	pad := runewidth.StringWidth(expandTabs(line[:start]))
	width := max(runewidth.StringWidth(expandTabs(line[start:min(end, len(line))])), 1)
	underline := "^" + strings.Repeat("~", width-1)
	_, err := fmt.Fprintf(w, " %s %s%s\n", p.gutter.Sprintf("%*s |", gutterWidth, ""), strings.Repeat(" ", pad), p.caret.Sprint(underline))
	return err
}

func lineText(file *source.File, ln int) string {
	n, err := safecast.Conv[uint32](ln)
	if err != nil {
		return ""
	}
	return file.GetLine(n)
}

// clampCol turns a 1-based byte column into an index into line.
func clampCol(col int, line string) int {
	return min(max(col-1, 0), len(line))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func describeFix(f diag.Fix) string {
	switch {
	case f.Range[0] == f.Range[1]:
		return fmt.Sprintf("insert %q at byte %d", f.Text, f.Range[0])
	case f.Text == "":
		return fmt.Sprintf("delete bytes %d..%d", f.Range[0], f.Range[1])
	default:
		return fmt.Sprintf("replace bytes %d..%d with %q", f.Range[0], f.Range[1], f.Text)
	}
}

// Short writes one line per diagnostic: path:line:col: severity: message [rule].
func Short(w io.Writer, bag *diag.Bag, pathMode PathMode, baseDir string) error {
	for _, d := range bag.Items() {
		line := fmt.Sprintf("%s:%d:%d: %s: %s",
			pathMode.format(d.Path, baseDir), d.Line, d.Column,
			strings.ToLower(d.Severity.String()), d.Text)
		if d.RuleID != "" {
			line += " [" + d.RuleID + "]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
