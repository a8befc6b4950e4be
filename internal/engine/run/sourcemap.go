package run

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"github.com/go-sourcemap/sourcemap"
)

const inlineSourceMapPrefix = "//# sourceMappingURL=data:application/json;base64,"

// extractInlineSourceMap parses the inline source map esbuild appends to its
// output. Code without one yields a nil consumer.
func extractInlineSourceMap(code string) (*sourcemap.Consumer, error) {
	idx := strings.LastIndex(code, inlineSourceMapPrefix)
	if idx == -1 {
		return nil, nil
	}
	b64 := strings.TrimSpace(code[idx+len(inlineSourceMapPrefix):])
	if nl := strings.IndexAny(b64, "\r\n"); nl != -1 {
		b64 = b64[:nl]
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decoding source map: %w", err)
	}
	sm, err := sourcemap.Parse("", data)
	if err != nil {
		if strings.Contains(err.Error(), "mappings are empty") {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing source map: %w", err)
	}
	return sm, nil
}

// position is a 1-based line and column.
type position struct {
	Line, Column int
}

var stackPosRe = regexp.MustCompile(`:(\d+):(\d+)\)?\s*$`)

// exceptionPosition finds where exc was thrown in the generated code, looking
// at the first stack frame of the script, then at lineNumber/columnNumber on
// the thrown object, then at the printed stack.
func exceptionPosition(exc *goja.Exception, script string) (position, bool) {
	for _, frame := range exc.Stack() {
		if frame.SrcName() != script {
			continue
		}
		p := frame.Position()
		if p.Line > 0 {
			return position{Line: p.Line, Column: p.Column}, true
		}
	}

	if obj, ok := exc.Value().(*goja.Object); ok {
		line, col := obj.Get("lineNumber"), obj.Get("columnNumber")
		if line != nil && !goja.IsUndefined(line) && col != nil && !goja.IsUndefined(col) {
			return position{Line: int(line.ToInteger()), Column: int(col.ToInteger())}, true
		}
	}

	for _, l := range strings.Split(exc.String(), "\n") {
		if !strings.Contains(l, script) {
			continue
		}
		m := stackPosRe.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		return position{Line: line, Column: col}, true
	}
	return position{}, false
}

// mapPosition translates a generated position back to the document. The
// source map works with 0-based columns.
func mapPosition(sm *sourcemap.Consumer, p position) (position, bool) {
	if sm == nil {
		return p, false
	}
	_, _, line, col, ok := sm.Source(p.Line, max(p.Column-1, 0))
	if !ok || line <= 0 {
		return p, false
	}
	return position{Line: line, Column: col + 1}, true
}
