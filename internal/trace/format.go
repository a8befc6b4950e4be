package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Format is the encoding of written events.
type Format uint8

const (
	FormatAuto   Format = iota // decided by the output path
	FormatText                 // one indented line per event
	FormatNDJSON               // one JSON object per line
)

// ParseFormat accepts auto, text, ndjson or json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

// FormatEvent encodes ev as one newline-terminated line.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return appendNDJSON(nil, ev)
	}
	return appendText(nil, ev)
}

const ndjsonTime = "2006-01-02T15:04:05.000000Z07:00"

// wireEvent is the NDJSON shape; kind and scope are spelled out.
type wireEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	GID      uint64            `json:"gid,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Error    bool              `json:"error,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func appendNDJSON(dst []byte, ev *Event) []byte {
	data, err := json.Marshal(wireEvent{
		Time:     ev.Time.Format(ndjsonTime),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		GID:      ev.GID,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Error:    ev.Error,
		Extra:    ev.Extra,
	})
	if err != nil {
		return dst
	}
	dst = append(dst, data...)
	return append(dst, '\n')
}

// glyph marks the event kind in text output.
func glyph(ev *Event) string {
	switch {
	case ev.Kind == KindSpanBegin:
		return "→"
	case ev.Kind == KindSpanEnd:
		return "←"
	case ev.Kind == KindHeartbeat:
		return "♡"
	case ev.Error:
		return "!"
	}
	return "•"
}

// appendText renders "[15:04:05.000]   → name (detail) {k=v, k=v}".
// Child events are indented by the depth of their scope.
func appendText(dst []byte, ev *Event) []byte {
	dst = ev.Time.AppendFormat(append(dst, '['), "15:04:05.000")
	dst = append(dst, "] "...)
	if ev.ParentID > 0 {
		dst = append(dst, strings.Repeat("  ", max(int(ev.Scope)-int(ScopeStage), 1))...)
	}
	dst = append(dst, glyph(ev)...)
	dst = append(dst, ' ')
	dst = append(dst, ev.Name...)
	if ev.Detail != "" {
		dst = append(dst, " ("...)
		dst = append(dst, ev.Detail...)
		dst = append(dst, ')')
	}
	if len(ev.Extra) > 0 {
		dst = append(dst, " {"...)
		for i, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			dst = append(dst, k...)
			dst = append(dst, '=')
			dst = append(dst, ev.Extra[k]...)
		}
		dst = append(dst, '}')
	}
	return append(dst, '\n')
}
