package observ

import (
	"context"
	"time"

	"doccheck/internal/trace"
)

// Phase is one timed step of a run: load, check, report.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string

	span *trace.Span
}

// Timer records the phases of a run and mirrors each one as a stage span in
// the tracer of the context it was created with. Begin and End must be called
// from the coordinating goroutine only.
type Timer struct {
	ctx    context.Context
	phases []Phase
}

// NewTimer returns a timer whose phase spans nest under the active span of ctx.
func NewTimer(ctx context.Context) *Timer {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Timer{ctx: ctx, phases: make([]Phase, 0, 4)}
}

// Begin opens a phase and returns the handle to pass to End.
func (t *Timer) Begin(name string) int {
	_, span := trace.Start(t.ctx, trace.ScopeStage, name)
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now(), span: span})
	return len(t.phases) - 1
}

// End closes the phase. Unknown handles are ignored.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
	p.span.End(note)
}

// PhaseReport is the serialized form of a finished phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates every phase. TotalMS is the sum of phase durations.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report snapshots the phases recorded so far.
func (t *Timer) Report() Report {
	var r Report
	var total time.Duration
	for _, p := range t.phases {
		total += p.Dur
		r.Phases = append(r.Phases, PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Note: p.Note})
	}
	r.TotalMS = millis(total)
	return r
}

func millis(d time.Duration) float64 {
	return d.Seconds() * 1000
}
