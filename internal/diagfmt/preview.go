package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

type fixEditPreview struct {
	before []string
	after  []string
}

// buildFixEditPreview renders the whole lines touched by fix before and after
// it is applied.
func buildFixEditPreview(file *source.File, fix diag.Fix) (fixEditPreview, error) {
	if file == nil {
		return fixEditPreview{}, fmt.Errorf("nil file")
	}
	start, err := safecast.Conv[uint32](fix.Range[0])
	if err != nil {
		return fixEditPreview{}, fmt.Errorf("fix start: %w", err)
	}
	end, err := safecast.Conv[uint32](fix.Range[1])
	if err != nil {
		return fixEditPreview{}, fmt.Errorf("fix end: %w", err)
	}
	if end < start || end > file.Len() {
		return fixEditPreview{}, fmt.Errorf("fix range %d..%d out of range for %s", start, end, file.Path)
	}

	startLine := file.Resolve(start).Line
	endLine := max(file.Resolve(end).Line, startLine)

	blockStart := lineStartOffset(file, startLine)
	blockEnd := min(max(lineEndOffsetInclusive(file, endLine), blockStart), file.Len())

	original := file.Content[blockStart:blockEnd]
	relStart := int(start - blockStart)
	relEnd := int(end - blockStart)

	after := make([]byte, 0, len(original)+len(fix.Text))
	after = append(after, original[:relStart]...)
	after = append(after, fix.Text...)
	after = append(after, original[relEnd:]...)

	return fixEditPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	// the block ends with the newline of its last line
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

func lineStartOffset(f *source.File, line uint32) uint32 {
	if line <= 1 {
		return 0
	}
	idx := line - 2
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return f.Len()
}

func lineEndOffsetInclusive(f *source.File, line uint32) uint32 {
	if line == 0 {
		return 0
	}
	idx := line - 1
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return f.Len()
}
