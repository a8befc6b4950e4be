package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	// ApplyModeRule applies every fix reported by one rule id.
	ApplyModeRule
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode       ApplyMode
	TargetRule string
	// DryRun computes the new contents without writing them.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	Path    string
	RuleID  string
	Message string
	Line    int
	Column  int
}

// SkippedFix captures a skipped fix with a reason.
type SkippedFix struct {
	Path   string
	RuleID string
	Line   int
	Reason string
}

// FileChange summarises modifications performed on a file. Content is the
// new file content as written, or as it would be written under DryRun.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	file  source.FileID
	fix   diag.Fix
	order int
}

// Apply collects the fixes of diagnostics, selects a subset according to opts
// and applies it to the files in fs. files maps a diagnostic path to its file.
// Within a file, a fix overlapping one already accepted is skipped.
func Apply(fs *source.FileSet, files map[string]source.FileID, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates, skips := gatherCandidates(files, diagnostics)
	result.Skipped = append(result.Skipped, skips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	sortCandidates(candidates)

	selected := selectCandidates(candidates, opts)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skipped, changes, err := applyCandidates(fs, selected, opts.DryRun)
	result.Applied = applied
	result.Skipped = append(result.Skipped, skipped...)
	result.FileChanges = changes
	if err != nil {
		return result, err
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

func gatherCandidates(files map[string]source.FileID, diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var cands []candidate
	var skips []SkippedFix
	for i, d := range diagnostics {
		if d.Fix == nil {
			continue
		}
		id, ok := files[d.Path]
		if !ok {
			skips = append(skips, SkippedFix{Path: d.Path, RuleID: d.RuleID, Line: d.Line, Reason: "file was not loaded"})
			continue
		}
		cands = append(cands, candidate{diag: d, file: id, fix: *d.Fix, order: i})
	}
	return cands, skips
}

// sortCandidates orders by file, range start, range end, then input order.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.file != cj.file {
			return ci.file < cj.file
		}
		if ci.fix.Range[0] != cj.fix.Range[0] {
			return ci.fix.Range[0] < cj.fix.Range[0]
		}
		if ci.fix.Range[1] != cj.fix.Range[1] {
			return ci.fix.Range[1] < cj.fix.Range[1]
		}
		return ci.order < cj.order
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) []candidate {
	switch opts.Mode {
	case ApplyModeAll:
		return candidates
	case ApplyModeRule:
		var selected []candidate
		for _, c := range candidates {
			if c.diag.RuleID == opts.TargetRule {
				selected = append(selected, c)
			}
		}
		return selected
	case ApplyModeOnce:
		return candidates[:1]
	default:
		return nil
	}
}

func applyCandidates(fs *source.FileSet, selected []candidate, dryRun bool) ([]AppliedFix, []SkippedFix, []FileChange, error) {
	accepted := make(map[source.FileID][]candidate)
	var fileOrder []source.FileID
	var applied []AppliedFix
	var skipped []SkippedFix

	for _, c := range selected {
		file := fs.Get(c.file)
		skip := func(reason string) {
			skipped = append(skipped, SkippedFix{Path: c.diag.Path, RuleID: c.diag.RuleID, Line: c.diag.Line, Reason: reason})
		}
		if file == nil {
			skip("file was not loaded")
			continue
		}
		if file.Flags.Has(source.FileVirtual) {
			skip("target file is virtual")
			continue
		}
		start, end := c.fix.Range[0], c.fix.Range[1]
		if start < 0 || end < start || end > len(file.Content) {
			skip("edit range out of bounds")
			continue
		}
		if conflicts(accepted[c.file], c.fix) {
			skip("conflicts with a previously applied fix")
			continue
		}
		if _, seen := accepted[c.file]; !seen {
			fileOrder = append(fileOrder, c.file)
		}
		accepted[c.file] = append(accepted[c.file], c)
		applied = append(applied, AppliedFix{
			Path:    c.diag.Path,
			RuleID:  c.diag.RuleID,
			Message: c.diag.Text,
			Line:    c.diag.Line,
			Column:  c.diag.Column,
		})
	}

	changes := make([]FileChange, 0, len(fileOrder))
	for _, id := range fileOrder {
		file := fs.Get(id)
		content := applyEdits(file, accepted[id])
		change := FileChange{
			Path:      accepted[id][0].diag.Path,
			EditCount: len(accepted[id]),
			Content:   content,
		}
		if !dryRun {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file.Path, content, mode); err != nil {
				return applied, skipped, changes, fmt.Errorf("write %s: %w", file.Path, err)
			}
		}
		changes = append(changes, change)
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return applied, skipped, changes, nil
}

// applyEdits applies non-overlapping edits to the bytes of file as read from
// disk, from the end of the buffer so earlier ranges stay valid. Ranges are
// moved past the BOM and the carriage returns loading removed, so line
// endings the edits do not touch are kept as they were.
func applyEdits(file *source.File, cands []candidate) []byte {
	edits := append([]candidate(nil), cands...)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].fix.Range[0] == edits[j].fix.Range[0] {
			return edits[i].fix.Range[1] > edits[j].fix.Range[1]
		}
		return edits[i].fix.Range[0] > edits[j].fix.Range[0]
	})
	working := file.Raw()
	eol := file.LineEnding()
	for _, e := range edits {
		start := file.DiskOffset(uint32(e.fix.Range[0])) //nolint:gosec // checked against the file length
		end := file.DiskOffset(uint32(e.fix.Range[1]))   //nolint:gosec // checked against the file length
		text := e.fix.Text
		if eol != "\n" {
			text = strings.ReplaceAll(text, "\n", eol)
		}
		suffix := append([]byte(nil), working[end:]...)
		working = append(append(working[:start], text...), suffix...)
	}
	return working
}

func conflicts(existing []candidate, f diag.Fix) bool {
	for _, prev := range existing {
		if rangesConflict(prev.fix.Range, f.Range) {
			return true
		}
	}
	return false
}

// rangesConflict reports whether two half-open ranges overlap. Two insertions
// (empty ranges) never conflict; an insertion conflicts with a range that
// strictly contains its position or starts at it.
func rangesConflict(a, b [2]int) bool {
	aStart, aEnd := a[0], a[1]
	bStart, bEnd := b[0], b[1]
	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart <= aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}
