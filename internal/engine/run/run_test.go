package run

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccheck/internal/codeblock"
	"doccheck/internal/diag"
)

func docsWith(code string) []codeblock.Document {
	return []codeblock.Document{
		{Index: 0, Name: "a.ts", Parent: "a.ts", Text: "throw new Error('host is never run');\n"},
		{Index: 1, Name: "1.ts", Parent: "a.ts", Text: code},
	}
}

func TestCheck_CleanRun(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	e := New()
	e.Stdout = &out
	lists, err := e.Check(context.Background(), docsWith("const n: number = 1;\nconsole.log('hello', n);\n"))
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Empty(t, lists[0], "the real file is not executed")
	assert.Empty(t, lists[1])
	assert.Equal(t, "hello 1\n", out.String())
}

func TestCheck_UncaughtExceptionMapped(t *testing.T) {
	t.Parallel()

	code := "type T = { a: number };\nconst t: T = { a: 1 };\n\nthrow new Error('boom');\n"
	lists, err := New().Check(context.Background(), docsWith(code))
	require.NoError(t, err)
	require.Len(t, lists[1], 1)

	m := lists[1][0]
	assert.Equal(t, RuleID, m.RuleID)
	assert.Equal(t, diag.SevError, m.Severity)
	assert.Contains(t, m.Text, "boom")
	assert.Equal(t, 4, m.Line, "line is mapped back through the source map")
}

func TestCheck_Timeout(t *testing.T) {
	t.Parallel()

	e := New()
	e.Timeout = 50 * time.Millisecond
	lists, err := e.Check(context.Background(), docsWith("while (true) {}\n"))
	require.NoError(t, err)
	require.Len(t, lists[1], 1)
	assert.Equal(t, "timeout", lists[1][0].MessageID)
	assert.Contains(t, lists[1][0].Text, "timed out")
}

func TestCheck_Modules(t *testing.T) {
	t.Parallel()

	e := New()
	e.Modules = map[string]string{"greet": "exports.hi = function () { return 'hi'; };"}
	lists, err := e.Check(context.Background(), docsWith("import { hi } from 'greet';\nif (hi() !== 'hi') throw new Error('bad');\n"))
	require.NoError(t, err)
	assert.Empty(t, lists[1])

	lists, err = e.Check(context.Background(), docsWith("import { x } from 'nope';\nx();\n"))
	require.NoError(t, err)
	require.Len(t, lists[1], 1)
	assert.Contains(t, lists[1][0].Text, "Cannot find module 'nope'")
}

func TestCheck_SyntaxErrorLeftToSyntaxEngine(t *testing.T) {
	t.Parallel()

	lists, err := New().Check(context.Background(), docsWith("const = ;\n"))
	require.NoError(t, err)
	assert.Empty(t, lists[1])
}

func TestCheck_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Check(ctx, docsWith("1;\n"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractInlineSourceMap_Absent(t *testing.T) {
	t.Parallel()

	sm, err := extractInlineSourceMap("var a = 1;\n")
	require.NoError(t, err)
	assert.Nil(t, sm)

	_, err = extractInlineSourceMap(inlineSourceMapPrefix + "!!!not-base64")
	require.Error(t, err)
}
