// Package vdoc holds anchors of extracted virtual documents between the
// extraction of a file and the remapping of its diagnostics.
package vdoc

import (
	"sync"

	"doccheck/internal/codeblock"
)

// Registry maps a real file name to the anchors of its pending virtual
// documents. Entries are single-use: Take removes what it returns.
//
// Distinct file names may be used concurrently. Extracting the same name twice
// before its diagnostics are remapped overwrites the first entry.
type Registry struct {
	mu      sync.Mutex
	entries map[string][]codeblock.Anchor
}

// Default is the process-wide registry.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string][]codeblock.Anchor)}
}

// Put stores anchors for filename, replacing any pending entry.
// It reports whether an entry was replaced.
func (r *Registry) Put(filename string, anchors []codeblock.Anchor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.entries[filename]
	r.entries[filename] = anchors
	return replaced
}

// Take returns and removes the anchors for filename.
// A missing entry yields an empty, non-nil slice.
func (r *Registry) Take(filename string) []codeblock.Anchor {
	r.mu.Lock()
	defer r.mu.Unlock()
	anchors, ok := r.entries[filename]
	if !ok {
		return []codeblock.Anchor{}
	}
	delete(r.entries, filename)
	return anchors
}

// Len returns the number of pending entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
