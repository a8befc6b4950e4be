// Package remap moves diagnostics reported against virtual documents back
// into the coordinate space of the real file they were extracted from.
package remap

import (
	"strconv"
	"sync/atomic"

	"doccheck/internal/codeblock"
	"doccheck/internal/diag"
	"doccheck/internal/trace"
	"doccheck/internal/vdoc"
)

// SkippedDoc records a virtual document whose messages were dropped because
// no anchor exists for it.
type SkippedDoc struct {
	Index    int // document index, >= 1
	Messages int // number of dropped messages
}

// Result is the flat, real-file-relative message list of one file.
type Result struct {
	Messages []diag.Message
	Skipped  []SkippedDoc
	// Unanswered counts anchors the engine returned no message list for.
	Unanswered int
}

// Dropped returns the number of messages lost to skipped documents.
func (r *Result) Dropped() int {
	n := 0
	for _, s := range r.Skipped {
		n += s.Messages
	}
	return n
}

// Apply remaps perDoc using anchors. perDoc[0] belongs to the real file and
// is passed through as is; perDoc[i] is shifted by anchors[i-1]. Documents
// without an anchor are skipped. Input messages are never modified.
func Apply(anchors []codeblock.Anchor, perDoc [][]diag.Message) Result {
	var res Result
	if len(perDoc) == 0 {
		res.Unanswered = len(anchors)
		return res
	}

	total := 0
	for _, msgs := range perDoc {
		total += len(msgs)
	}
	res.Messages = make([]diag.Message, 0, total)
	res.Messages = append(res.Messages, perDoc[0]...)

	for i := 1; i < len(perDoc); i++ {
		if i-1 >= len(anchors) {
			res.Skipped = append(res.Skipped, SkippedDoc{Index: i, Messages: len(perDoc[i])})
			continue
		}
		anchor := anchors[i-1]
		for _, m := range perDoc[i] {
			res.Messages = append(res.Messages, Shift(m, anchor))
		}
	}
	if len(anchors) > len(perDoc)-1 {
		res.Unanswered = len(anchors) - (len(perDoc) - 1)
	}
	return res
}

// Shift returns a copy of m moved by anchor: lines by LineOffset, fix and
// suggestion ranges by CharacterOffset. Columns stay unchanged.
func Shift(m diag.Message, anchor codeblock.Anchor) diag.Message {
	m = m.Clone()
	m.Line += anchor.LineOffset
	if m.HasEnd() {
		m.EndLine += anchor.LineOffset
	}
	if m.Fix != nil {
		m.Fix.Range[0] += anchor.CharacterOffset
		m.Fix.Range[1] += anchor.CharacterOffset
	}
	for i := range m.Suggestions {
		m.Suggestions[i].Fix.Range[0] += anchor.CharacterOffset
		m.Suggestions[i].Fix.Range[1] += anchor.CharacterOffset
	}
	return m
}

// Stats are cumulative counters of a Remapper.
type Stats struct {
	Files            int64
	SkippedDocuments int64
	DroppedMessages  int64
}

// Remapper pairs Apply with a registry: anchors are taken, so a second Remap
// of the same file without a new extraction skips every virtual document.
type Remapper struct {
	Registry *vdoc.Registry
	Tracer   trace.Tracer

	files   atomic.Int64
	skipped atomic.Int64
	dropped atomic.Int64
}

// New creates a Remapper; nil arguments select vdoc.Default and trace.Nop.
func New(registry *vdoc.Registry, tracer trace.Tracer) *Remapper {
	if registry == nil {
		registry = vdoc.Default
	}
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Remapper{Registry: registry, Tracer: tracer}
}

// Remap takes the anchors of filename and applies them to perDoc.
// It never fails: inconsistencies are counted and traced.
func (r *Remapper) Remap(filename string, perDoc [][]diag.Message) Result {
	anchors := r.Registry.Take(filename)
	res := Apply(anchors, perDoc)

	r.files.Add(1)
	for _, s := range res.Skipped {
		r.skipped.Add(1)
		r.dropped.Add(int64(s.Messages))
		trace.Point(r.Tracer, trace.ScopeFile, "remap.skip", "no anchor for virtual document", map[string]string{
			"file":     filename,
			"doc":      strconv.Itoa(s.Index),
			"anchors":  strconv.Itoa(len(anchors)),
			"messages": strconv.Itoa(s.Messages),
		})
	}
	if res.Unanswered > 0 {
		trace.Point(r.Tracer, trace.ScopeFile, "remap.short", "engine returned fewer lists than documents", map[string]string{
			"file":    filename,
			"lists":   strconv.Itoa(len(perDoc)),
			"anchors": strconv.Itoa(len(anchors)),
		})
	}
	return res
}

// Stats returns the counters accumulated so far.
func (r *Remapper) Stats() Stats {
	return Stats{
		Files:            r.files.Load(),
		SkippedDocuments: r.skipped.Load(),
		DroppedMessages:  r.dropped.Load(),
	}
}
