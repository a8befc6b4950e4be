package source

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeCRLF replaces every \r\n with \n and leaves lone \r alone.
// It returns the offsets, in the output, of every \n that was a \r\n.
func normalizeCRLF(content []byte) ([]byte, []uint32) {
	if !slices.Contains(content, '\r') {
		return content, nil
	}

	out := make([]byte, 0, len(content))
	var crlf []uint32

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			crlf = append(crlf, uint32(len(out))) //nolint:gosec // bounded by the file size check
			out = append(out, '\n')
			i += 2
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, crlf
}

var bom = []byte{0xEF, 0xBB, 0xBF}

func removeBOM(content []byte) ([]byte, bool) {
	if rest, ok := bytes.CutPrefix(content, bom); ok {
		return rest, true
	}
	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, 64)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) //nolint:gosec // file size is bounded by Add
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	if len(lineIdx) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	// largest i with lineIdx[i] < off
	lo, hi := 0, len(lineIdx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	line := hi + 1 // 0-based line index

	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}

	return LineCol{Line: uint32(line + 1), Col: off - startOff + 1} //nolint:gosec // line < len(lineIdx)+1
}

// lineStart returns the offset of the first byte of a 1-based line.
func lineStart(lineIdx []uint32, line uint32) (uint32, bool) {
	if line == 0 {
		return 0, false
	}
	if line == 1 {
		return 0, true
	}
	if int(line-2) >= len(lineIdx) {
		return 0, false
	}
	return lineIdx[line-2] + 1, true
}

// normalizePath gives one spelling per path: forward slashes, cleaned, NFC.
// macOS reports NFD names from directory walks, which would otherwise miss
// lookups made with the NFC spelling typed on the command line.
func normalizePath(p string) string {
	return norm.NFC.String(filepath.ToSlash(filepath.Clean(p)))
}

// AbsolutePath returns the normalised absolute form of path.
func AbsolutePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return normalizePath(abs), nil
}

// RelativePath returns path relative to baseDir. Paths that escape baseDir
// are returned in absolute form instead of a chain of "../".
func RelativePath(path, baseDir string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return normalizePath(absPath), nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return normalizePath(absPath), nil
	}
	return normalizePath(rel), nil
}

// BaseName returns the last path element.
func BaseName(path string) string {
	return filepath.Base(path)
}
