package codeblock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"doccheck/internal/lexer"
	"doccheck/internal/source"
	"doccheck/internal/token"
)

type stubParser struct {
	comments []token.Trivia
	err      error
}

func (p stubParser) Comments(context.Context, *source.File) ([]token.Trivia, error) {
	return p.comments, p.err
}

func extract(t *testing.T, text string) *Extraction {
	t.Helper()
	ex := &Extractor{}
	out, err := ex.ExtractText(context.Background(), text, "src/index.d.ts")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return out
}

// every anchor must point at the first byte of its code in the real text
func assertAnchorsPointAtCode(t *testing.T, text string, out *Extraction) {
	t.Helper()
	for i, doc := range out.Virtual() {
		a := out.Anchors[i]
		if !strings.HasPrefix(text[a.CharacterOffset:], doc.Text) {
			t.Errorf("document %d: real text at %d = %q, want prefix %q",
				doc.Index, a.CharacterOffset, text[a.CharacterOffset:], doc.Text)
		}
		firstLine := strings.SplitN(doc.Text, "\n", 2)[0]
		realLine := strings.Split(text, "\n")[a.LineOffset] // virtual line 1, 0-based index
		if realLine != firstLine {
			t.Errorf("document %d: real line %d = %q, want %q", doc.Index, a.LineOffset+1, realLine, firstLine)
		}
	}
	for _, b := range out.Blocks {
		if got := text[b.Span.Start:b.Span.End]; got != b.Code {
			t.Errorf("block %d: span %s covers %q, want %q", b.Index, b.Span, got, b.Code)
		}
	}
}

func TestExtractSingleBlockAnchoring(t *testing.T) {
	text := "/**\nSome text.\n```ts\nconst a = 1;\n```\n*/\nexport type A = 1;\n"
	out := extract(t, text)

	if len(out.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(out.Documents))
	}
	if out.Documents[0].Text != text || out.Documents[0].IsVirtual() {
		t.Fatalf("document 0 must be the unchanged real text")
	}
	doc := out.Documents[1]
	if doc.Text != "const a = 1;\n" {
		t.Fatalf("code = %q", doc.Text)
	}
	if doc.Name != "1.ts" || doc.Path() != "src/index.d.ts/1.ts" {
		t.Fatalf("name = %q path = %q", doc.Name, doc.Path())
	}
	if doc.Lang != "ts" {
		t.Fatalf("lang = %q", doc.Lang)
	}
	want := Anchor{LineOffset: 3, CharacterOffset: 21}
	if out.Anchors[0] != want {
		t.Fatalf("anchor = %+v, want %+v", out.Anchors[0], want)
	}
	// virtual line 1 is real line 4
	if got := out.Anchors[0].LineOffset + 1; got != 4 {
		t.Fatalf("virtual line 1 maps to %d", got)
	}
	assertAnchorsPointAtCode(t, text, out)
}

func TestExtractMultipleBlocksKeepIndependentOffsets(t *testing.T) {
	text := strings.Join([]string{
		"export type X = 1;",
		"/**",
		"First:",
		"```ts",
		"let a = 1;",
		"```",
		"Second:",
		"```",
		"let b = 2;",
		"let c = 3;",
		"```",
		"*/",
		"/**",
		"```ts",
		"let d = 4;",
		"```",
		"*/",
		"",
	}, "\n")
	out := extract(t, text)

	if len(out.Anchors) != 3 {
		t.Fatalf("got %d anchors, want 3", len(out.Anchors))
	}
	if out.Anchors[0].LineOffset >= out.Anchors[1].LineOffset || out.Anchors[1].LineOffset >= out.Anchors[2].LineOffset {
		t.Fatalf("line offsets not increasing: %+v", out.Anchors)
	}
	if out.Anchors[0].LineOffset != 4 || out.Anchors[1].LineOffset != 8 || out.Anchors[2].LineOffset != 14 {
		t.Fatalf("anchors = %+v", out.Anchors)
	}
	if out.Documents[2].Text != "let b = 2;\nlet c = 3;\n" || out.Documents[2].Lang != "" {
		t.Fatalf("second block = %+v", out.Documents[2])
	}
	for i, doc := range out.Documents {
		if doc.Index != i {
			t.Fatalf("document %d has index %d", i, doc.Index)
		}
	}
	assertAnchorsPointAtCode(t, text, out)
}

func TestExtractSkipsEmptyAndUnterminatedBlocks(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		codes []string
	}{
		{"empty body", "/**\n```ts\n```\n*/", nil},
		{"whitespace body", "/**\n```ts\n  \n\n```\n*/", nil},
		{"empty then real", "/**\n```ts\n```\n```ts\nx;\n```\n*/", []string{"x;\n"}},
		{"unterminated", "/**\n```ts\nconst a = 1;\n*/", nil},
		{"no language and no newline", "/** ```x``` */", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := extract(t, tt.text)
			if len(out.Anchors) != len(tt.codes) || len(out.Documents) != len(tt.codes)+1 {
				t.Fatalf("got %d anchors, %d documents; want %d blocks", len(out.Anchors), len(out.Documents), len(tt.codes))
			}
			for i, code := range tt.codes {
				if out.Documents[i+1].Text != code {
					t.Fatalf("block %d = %q, want %q", i, out.Documents[i+1].Text, code)
				}
			}
			assertAnchorsPointAtCode(t, tt.text, out)
		})
	}
}

func TestExtractIgnoresNonDocComments(t *testing.T) {
	text := "/*\n```ts\nplain();\n```\n*/\n// ```ts\n// line();\n// ```\n"
	out := extract(t, text)
	if len(out.Anchors) != 0 {
		t.Fatalf("extracted %d blocks from non-doc comments", len(out.Anchors))
	}
}

func TestExtractScenarioFromCommentCollaborator(t *testing.T) {
	body := "*\nfoo\n```ts\nconst a: Array<string> = [];\n```\n"
	ex := &Extractor{Parser: stubParser{comments: []token.Trivia{{
		Kind: token.TriviaDocBlock,
		Span: source.Span{Start: 200, End: 200 + uint32(len(body)) + 4},
		Text: body,
		Line: 10,
	}}}}
	out, err := ex.ExtractText(context.Background(), "ignored", "a.ts")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(out.Virtual()) != 1 {
		t.Fatalf("got %d virtual documents", len(out.Virtual()))
	}
	if out.Documents[1].Text != "const a: Array<string> = [];\n" {
		t.Fatalf("code = %q", out.Documents[1].Text)
	}
	fenceIndex := strings.Index(body, "```")
	want := Anchor{LineOffset: 12, CharacterOffset: 200 + fenceIndex + len("```ts\n") + 2}
	if out.Anchors[0] != want {
		t.Fatalf("anchor = %+v, want %+v", out.Anchors[0], want)
	}
	if span := out.Blocks[0].Span; int(span.Start) != want.CharacterOffset || int(span.Len()) != len(out.Documents[1].Text) {
		t.Fatalf("block span = %s", span)
	}
}

func TestExtractParseFailureIsFatal(t *testing.T) {
	ex := &Extractor{}
	_, err := ex.ExtractText(context.Background(), "/** ```ts\nx\n``` */\nconst s = 'open", "a.ts")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Filename != "a.ts" {
		t.Fatalf("expected *ParseError for a.ts, got %v", err)
	}
	var lexErr *lexer.Error
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected the lexer error to be wrapped")
	}

	boom := errors.New("boom")
	ex = &Extractor{Parser: stubParser{err: boom}}
	if _, err := ex.ExtractText(context.Background(), "", "b.ts"); !errors.Is(err, boom) {
		t.Fatalf("parser error not propagated: %v", err)
	}
}

func TestExtractLanguageFilter(t *testing.T) {
	text := "/**\n```sh\nnpm i\n```\n```TS\nlet a;\n```\n```\nlet b;\n```\n*/"
	ex := &Extractor{Languages: []string{"ts", ""}}
	out, err := ex.ExtractText(context.Background(), text, "a.ts")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(out.Anchors) != 2 || out.Documents[1].Text != "let a;\n" || out.Documents[2].Name != "2.ts" {
		t.Fatalf("unexpected documents: %+v", out.Documents)
	}
}

func TestHostExtension(t *testing.T) {
	tests := map[string]string{
		"a.ts":      ".ts",
		"a.d.ts":    ".ts",
		"a.mts":     ".ts",
		"x/B.TSX":   ".tsx",
		"a.jsx":     ".jsx",
		"a.mjs":     ".js",
		"lib/a.cjs": ".js",
		"index.js":  ".js",
		"no-ext":    ".ts",
	}
	for in, want := range tests {
		if got := HostExtension(in); got != want {
			t.Errorf("HostExtension(%q) = %q, want %q", in, got, want)
		}
	}
	if got := VirtualName(3, "a.jsx"); got != "3.jsx" {
		t.Errorf("VirtualName = %q", got)
	}
}
