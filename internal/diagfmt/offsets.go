package diagfmt

import (
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// diskFix rewrites fix for consumers that edit the file as stored: the range
// moves to disk byte offsets and inserted newlines take the file's line
// ending. Without a file, or with a range the file cannot hold, fix is
// returned unchanged.
func diskFix(file *source.File, fix diag.Fix) diag.Fix {
	if file == nil {
		return fix
	}
	start, err := safecast.Conv[uint32](fix.Range[0])
	if err != nil {
		return fix
	}
	end, err := safecast.Conv[uint32](fix.Range[1])
	if err != nil || end < start || end > file.Len() {
		return fix
	}
	out := diag.Fix{
		Range: [2]int{int(file.DiskOffset(start)), int(file.DiskOffset(end))},
		Text:  fix.Text,
	}
	if eol := file.LineEnding(); eol != "\n" {
		out.Text = strings.ReplaceAll(fix.Text, "\n", eol)
	}
	return out
}

// codePointColumn converts a 1-based byte column of line into a 1-based
// column counted in Unicode code points. Columns past the end of the line
// keep their distance from it.
func codePointColumn(file *source.File, line, col int) int {
	if file == nil || line <= 0 || col <= 1 {
		return col
	}
	n, err := safecast.Conv[uint32](line)
	if err != nil {
		return col
	}
	text := file.GetLine(n)
	if col-1 > len(text) {
		return utf8.RuneCountInString(text) + 1 + (col - 1 - len(text))
	}
	return utf8.RuneCountInString(text[:col-1]) + 1
}
