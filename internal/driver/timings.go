package driver

import (
	"encoding/json"

	"doccheck/internal/observ"
)

// TimingPayload is the machine-readable form of a run's phase timings.
type TimingPayload struct {
	Kind    string               `json:"kind"`
	Files   int                  `json:"files"`
	Cached  int                  `json:"cached"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// Timings summarizes r for --timings output.
func (r *Result) Timings(kind string) TimingPayload {
	if kind == "" {
		kind = "check"
	}
	cached := 0
	for _, f := range r.Files {
		if f.Cached {
			cached++
		}
	}
	return TimingPayload{
		Kind:    kind,
		Files:   len(r.Files),
		Cached:  cached,
		TotalMS: r.Timing.TotalMS,
		Phases:  r.Timing.Phases,
	}
}

// JSON encodes the payload on one line.
func (p TimingPayload) JSON() ([]byte, error) {
	return json.Marshal(p)
}
