package diag

import (
	"cmp"
	"slices"
)

// Bag collects the diagnostics of a run. It is not safe for concurrent use;
// the driver fills it after the workers are done.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag creates a bag that keeps at most limit diagnostics; limit <= 0 means unlimited.
func NewBag(limit int) *Bag {
	return &Bag{
		items: make([]Diagnostic, 0, min(max(limit, 0), 64)),
		max:   limit,
	}
}

// Add appends d unless the limit is reached.
// Returns false if the diagnostic was dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() int {
	return b.max
}

// HasErrors reports whether any diagnostic has SevError.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic has at least SevWarning.
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the internal slice. Callers must not modify it.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Counts returns the number of diagnostics per severity.
func (b *Bag) Counts() map[Severity]int {
	out := make(map[Severity]int, 3)
	for i := range b.items {
		out[b.items[i].Severity]++
	}
	return out
}

// Sort orders diagnostics by path, line, column, severity (desc) and rule id
// for stable output.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(di, dj Diagnostic) int {
		if c := cmp.Compare(di.Path, dj.Path); c != 0 {
			return c
		}
		if c := cmp.Compare(di.Line, dj.Line); c != 0 {
			return c
		}
		if c := cmp.Compare(di.Column, dj.Column); c != 0 {
			return c
		}
		if di.Severity != dj.Severity {
			return cmp.Compare(dj.Severity, di.Severity)
		}
		return cmp.Compare(di.RuleID, dj.RuleID)
	})
}

// Filter keeps diagnostics for which keep returns true.
func (b *Bag) Filter(keep func(*Diagnostic) bool) {
	out := b.items[:0]
	for i := range b.items {
		if keep(&b.items[i]) {
			out = append(out, b.items[i])
		}
	}
	b.items = out
}
