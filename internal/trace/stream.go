package trace

import (
	"io"
	"sync"
)

// StreamTracer formats each accepted event and writes it right away.
type StreamTracer struct {
	gate
	format Format

	mu sync.Mutex
	w  io.Writer
}

// NewStreamTracer writes to w. FormatAuto falls back to text.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &StreamTracer{gate: gate{level}, format: format, w: w}
}

// Emit stamps ev with a sequence number and writes it.
// Write errors are ignored: trace output never fails a check.
func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.accepts(ev) {
		return
	}
	ev.Seq = NextSeq()
	line := FormatEvent(ev, t.format)

	t.mu.Lock()
	_, _ = t.w.Write(line) //nolint:errcheck
	t.mu.Unlock()
}

// Flush forwards to the writer when it buffers.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and then closes the writer when it is an io.Closer.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
