package diagfmt

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	bag, lookup := testBag()
	var buf bytes.Buffer
	opts := JSONOpts{PathMode: PathModeBasename, IncludeFixes: true, IncludePreviews: true}
	if err := JSON(&buf, bag, lookup, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || output.Warnings != 1 || output.Errors != 0 {
		t.Fatalf("unexpected counts: %+v", output)
	}
	d := output.Diagnostics[0]
	if d.Path != "sum.ts" || d.Severity != "warning" || d.RuleID != "array-type" || d.MessageID != "useShorthand" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if d.Position != (PositionJSON{Line: 2, Column: 10, EndLine: 2, EndColumn: 23}) {
		t.Fatalf("unexpected position: %+v", d.Position)
	}
	if d.Fix == nil || d.Fix.Range != [2]int{20, 33} || d.Fix.Text != "number[]" {
		t.Fatalf("unexpected fix: %+v", d.Fix)
	}
	if !reflect.DeepEqual(d.Fix.BeforeLines, []string{"const x: Array<number> = [];"}) ||
		!reflect.DeepEqual(d.Fix.AfterLines, []string{"const x: number[] = [];"}) {
		t.Fatalf("unexpected preview: %+v", d.Fix)
	}
}

func TestJSONWithoutFixesAndMax(t *testing.T) {
	bag, lookup := testBag()
	bag.Add(bag.Items()[0])
	out := BuildDiagnosticsOutput(bag, lookup, JSONOpts{Max: 1})
	if out.Count != 1 {
		t.Fatalf("expected truncation to 1, got %d", out.Count)
	}
	if out.Diagnostics[0].Fix != nil {
		t.Fatalf("fixes must be omitted unless requested")
	}
}

func TestSarif(t *testing.T) {
	bag, _ := testBag()
	var buf bytes.Buffer
	meta := SarifRunMeta{
		ToolName:    "doccheck",
		ToolVersion: "1.0.0",
		Rules:       []SarifRule{{ID: "no-var", Description: "Require let or const"}},
		BaseDir:     "/home/user/project",
	}
	if err := Sarif(&buf, bag, meta); err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected log: %+v", log)
	}
	run := log.Runs[0]
	if len(run.Tool.Driver.Rules) != 2 || run.Tool.Driver.Rules[1].ID != "array-type" {
		t.Fatalf("unexpected rules: %+v", run.Tool.Driver.Rules)
	}
	res := run.Results[0]
	if res.Level != "warning" || res.RuleIndex == nil || *res.RuleIndex != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	loc := res.Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "src/sum.ts" || loc.ArtifactLocation.URIBaseID != srcRoot {
		t.Fatalf("unexpected artifact: %+v", loc.ArtifactLocation)
	}
	if loc.Region.StartLine != 2 || loc.Region.StartColumn != 10 || loc.Region.EndColumn != 23 {
		t.Fatalf("unexpected region: %+v", loc.Region)
	}
	repl := res.Fixes[0].ArtifactChanges[0].Replacements[0]
	if *repl.DeletedRegion.ByteOffset != 20 || *repl.DeletedRegion.ByteLength != 13 || repl.InsertedContent.Text != "number[]" {
		t.Fatalf("unexpected replacement: %+v", repl)
	}
	if !run.Invocations[0].ExecutionSuccessful {
		t.Fatalf("warnings only should count as a successful run")
	}
}

func crlfBag() (*diag.Bag, SourceLookup, string) {
	raw := "\xEF\xBB\xBF/**\r\n * x\r\n */\r\nvar total: Array<number> = [];\r\n"
	file := source.Normalize([]byte(raw)).File(testPath)
	start := strings.Index(string(file.Content), "Array<number>")
	bag := diag.NewBag(0)
	bag.Add(diag.Diagnostic{
		Path: testPath,
		Message: diag.Message{
			RuleID:   "array-type",
			Severity: diag.SevWarning,
			Text:     "Use number[]",
			Line:     4,
			Column:   12,
			Fix:      &diag.Fix{Range: [2]int{start, start + len("Array<number>")}, Text: "number[]"},
			Suggestions: []diag.Suggestion{{
				Desc: "split",
				Fix:  diag.Fix{Range: [2]int{start, start}, Text: "\n"},
			}},
		},
	})
	lookup := func(path string) *source.File {
		if path == file.Path {
			return file
		}
		return nil
	}
	return bag, lookup, raw
}

func TestJSONFixRangesCountDiskBytes(t *testing.T) {
	bag, lookup, raw := crlfBag()
	out := BuildDiagnosticsOutput(bag, lookup, JSONOpts{IncludeFixes: true, IncludePreviews: true})
	d := out.Diagnostics[0]
	if d.Fix == nil {
		t.Fatal("fix missing")
	}
	if got := raw[d.Fix.Range[0]:d.Fix.Range[1]]; got != "Array<number>" {
		t.Fatalf("fix range %v covers %q on disk", d.Fix.Range, got)
	}
	if !reflect.DeepEqual(d.Fix.AfterLines, []string{"var total: number[] = [];"}) {
		t.Fatalf("unexpected preview: %+v", d.Fix)
	}
	if s := d.Suggestions[0].Fix; s.Text != "\r\n" || s.Range[0] != d.Fix.Range[0] {
		t.Fatalf("suggestion = %+v, want a CRLF insertion at %d", s, d.Fix.Range[0])
	}
}

func TestSarifDiskOffsetsAndCodePointColumns(t *testing.T) {
	bag, lookup, raw := crlfBag()
	file := source.Normalize([]byte("const s = \"héllo\"; var x;\n")).File("/p/u.ts")
	bag.Add(diag.Diagnostic{
		Path: file.Path,
		Message: diag.Message{
			RuleID: "no-var", Severity: diag.SevError, Text: "var",
			Line: 1, Column: 21, EndLine: 1, EndColumn: 24,
		},
	})
	both := func(path string) *source.File {
		if path == file.Path {
			return file
		}
		return lookup(path)
	}

	var buf bytes.Buffer
	if err := Sarif(&buf, bag, SarifRunMeta{ToolName: "doccheck", Lookup: both}); err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	run := log.Runs[0]
	if run.ColumnKind != "unicodeCodePoints" {
		t.Fatalf("columnKind = %q", run.ColumnKind)
	}
	repl := run.Results[0].Fixes[0].ArtifactChanges[0].Replacements[0]
	off, n := *repl.DeletedRegion.ByteOffset, *repl.DeletedRegion.ByteLength
	if got := raw[off : off+n]; got != "Array<number>" {
		t.Fatalf("byteOffset %d length %d covers %q on disk", off, n, got)
	}
	region := run.Results[1].Locations[0].PhysicalLocation.Region
	if region.StartColumn != 20 || region.EndColumn != 23 {
		t.Fatalf("region = %+v, want columns 20..23", region)
	}
}
