package codeblock

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"doccheck/internal/lexer"
	"doccheck/internal/source"
	"doccheck/internal/token"
)

// fencePattern matches an opening fence with an optional language id, then
// the shortest body up to the next closing fence, so adjacent blocks in one
// comment stay separate. An opening fence without a closing one never matches.
var fencePattern = regexp.MustCompile("```([\\w+.-]*)\\n([\\s\\S]*?)```")

// CommentParser is the parser collaborator: it lists the comments of a file.
type CommentParser interface {
	Comments(ctx context.Context, file *source.File) ([]token.Trivia, error)
}

// LexerParser lists comments with the built-in lexer.
type LexerParser struct{}

func (LexerParser) Comments(_ context.Context, file *source.File) ([]token.Trivia, error) {
	res, err := lexer.Scan(file)
	if err != nil {
		return nil, err
	}
	return res.Comments, nil
}

// Extractor finds code blocks in documentation comments.
type Extractor struct {
	Parser CommentParser
	// Languages restricts which fence language ids are extracted.
	// Empty accepts every block. Compared case-insensitively.
	Languages []string
}

// ParseError is returned when the real file cannot be parsed.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Extract parses file and extracts every non-empty fenced block found in its
// doc comments. filename names the real file in the result and in synthetic
// document paths. A parse failure is returned as *ParseError with no partial result.
func (e *Extractor) Extract(ctx context.Context, file *source.File, filename string) (*Extraction, error) {
	parser := e.Parser
	if parser == nil {
		parser = LexerParser{}
	}
	comments, err := parser.Comments(ctx, file)
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}

	out := &Extraction{
		Filename: filename,
		Documents: []Document{{
			Index:  0,
			Name:   filename,
			Parent: filename,
			Text:   string(file.Content),
		}},
	}

	for _, c := range comments {
		if !c.IsDoc() {
			continue
		}
		for _, m := range findBlocks(c) {
			if !e.accepts(m.lang) {
				continue
			}
			index := len(out.Documents)
			out.Documents = append(out.Documents, Document{
				Index:  index,
				Name:   VirtualName(index, filename),
				Parent: filename,
				Lang:   m.lang,
				Text:   m.code,
			})
			out.Anchors = append(out.Anchors, m.anchor)
			out.Blocks = append(out.Blocks, Block{
				Index:   index,
				Comment: c,
				Lang:    m.lang,
				Code:    m.code,
				Span:    m.span,
				Anchor:  m.anchor,
			})
		}
	}
	return out, nil
}

// ExtractText is Extract over in-memory text.
func (e *Extractor) ExtractText(ctx context.Context, text, filename string) (*Extraction, error) {
	return e.Extract(ctx, source.NewVirtualFile(filename, []byte(text)), filename)
}

func (e *Extractor) accepts(lang string) bool {
	if len(e.Languages) == 0 {
		return true
	}
	return slices.ContainsFunc(e.Languages, func(l string) bool {
		return strings.EqualFold(l, lang)
	})
}

type blockMatch struct {
	lang   string
	code   string
	span   source.Span
	anchor Anchor
}

// findBlocks scans one comment body. Offsets inside the body are shifted by
// two for the "/*" that precedes it in the real file.
func findBlocks(c token.Trivia) []blockMatch {
	var out []blockMatch
	for _, loc := range fencePattern.FindAllStringSubmatchIndex(c.Text, -1) {
		matchStart := loc[0]
		codeStart, codeEnd := loc[4], loc[5]
		code := c.Text[codeStart:codeEnd]
		if strings.TrimSpace(code) == "" {
			continue
		}
		fenceLen := codeStart - matchStart
		out = append(out, blockMatch{
			lang: c.Text[loc[2]:loc[3]],
			code: code,
			span: source.Span{File: c.Span.File, Start: uint32(codeStart), End: uint32(codeEnd)}.ShiftRight(c.Span.Start + 2),
			anchor: Anchor{
				LineOffset:      int(c.Line) + strings.Count(c.Text[:matchStart], "\n"),
				CharacterOffset: int(c.Span.Start) + matchStart + fenceLen + 2,
			},
		})
	}
	return out
}
