// Package treesitter lists comments using tree-sitter grammars. It is the
// parser used for TSX and JavaScript files, where JSX text content cannot be
// told apart from code by the built-in lexer.
package treesitter

import (
	"context"
	"fmt"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"doccheck/internal/codeblock"
	"doccheck/internal/source"
	"doccheck/internal/token"
)

const commentQuery = "(comment) @comment"

// Error is a syntax error found by tree-sitter. Pos is 1-based.
type Error struct {
	Pos  source.LineCol
	Kind string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: syntax error near %s", e.Pos.Line, e.Pos.Col, e.Kind)
}

// Parser implements codeblock.CommentParser. Any ERROR or MISSING node
// in the tree fails the whole file.
type Parser struct{}

// Language picks the grammar for a file name: TSX for JSX-capable files
// (.tsx and every JavaScript extension), TypeScript otherwise.
func Language(name string) *sitter.Language {
	if jsxCapable(name) {
		return tsx.GetLanguage()
	}
	return typescript.GetLanguage()
}

// jsxCapable reports whether files named like name may hold JSX. Plain .js
// files do in React projects.
func jsxCapable(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".tsx", ".jsx", ".js", ".mjs", ".cjs":
		return true
	}
	return false
}

func (Parser) Comments(ctx context.Context, file *source.File) ([]token.Trivia, error) {
	lang := Language(file.Path)
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(lang)

	tree, err := p.ParseCtx(ctx, nil, file.Content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(file, root)
	}

	q, err := sitter.NewQuery([]byte(commentQuery), lang)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var out []token.Trivia
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			out = append(out, trivia(file, c.Node))
		}
	}
	return out, nil
}

func trivia(file *source.File, n *sitter.Node) token.Trivia {
	start, end := n.StartByte(), n.EndByte()
	text := file.Content[start:end]
	t := token.Trivia{
		Span: source.Span{File: file.ID, Start: start, End: end},
	}
	pos := file.Resolve(start)
	t.Line, t.Col = pos.Line, pos.Col

	switch {
	case len(text) >= 4 && text[0] == '/' && text[1] == '*':
		body := text[2 : len(text)-2]
		t.Kind = token.TriviaBlockComment
		if len(body) > 0 && body[0] == '*' {
			t.Kind = token.TriviaDocBlock
		}
		t.Text = string(body)
	default:
		t.Kind = token.TriviaLineComment
		t.Text = strings.TrimPrefix(string(text), "//")
	}
	return t
}

// firstError returns the position of the first ERROR or MISSING node in
// document order.
func firstError(file *source.File, root *sitter.Node) *Error {
	var found *sitter.Node
	var walk func(n *sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return true
		}
		if !n.HasError() {
			return false
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if walk(n.Child(i)) {
				return true
			}
		}
		return false
	}
	walk(root)
	if found == nil {
		found = root
	}
	kind := found.Type()
	if found.IsMissing() {
		kind = "missing " + kind
	}
	pos := file.Resolve(found.StartByte())
	return &Error{Pos: pos, Kind: kind}
}

// Auto uses tree-sitter for files that may hold JSX and the lexer for the rest.
type Auto struct {
	Lexer      codeblock.LexerParser
	TreeSitter Parser
}

func (a Auto) Comments(ctx context.Context, file *source.File) ([]token.Trivia, error) {
	if jsxCapable(file.Path) {
		return a.TreeSitter.Comments(ctx, file)
	}
	return a.Lexer.Comments(ctx, file)
}

// ForName returns the comment parser configured by name: "lexer",
// "treesitter" or "auto".
func ForName(name string) (codeblock.CommentParser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto{}, nil
	case "lexer":
		return codeblock.LexerParser{}, nil
	case "treesitter", "tree-sitter":
		return Parser{}, nil
	}
	return nil, fmt.Errorf("unknown parser %q", name)
}
