package diag

// Built-in rule ids for findings that do not come from a check engine.
const (
	RuleParse    = "parse-error"
	RuleIO       = "io-error"
	RuleInternal = "internal-error"
)

// Fix replaces the bytes [Range[0], Range[1]) with Text.
type Fix struct {
	Range [2]int `json:"range" msgpack:"range"`
	Text  string `json:"text" msgpack:"text"`
}

// Suggestion is a fix offered for manual review.
type Suggestion struct {
	Desc string `json:"desc" msgpack:"desc"`
	Fix  Fix    `json:"fix" msgpack:"fix"`
}

// Message is a finding reported by a check engine against one document.
type Message struct {
	RuleID      string       `json:"ruleId,omitempty" msgpack:"rule"`
	MessageID   string       `json:"messageId,omitempty" msgpack:"mid"`
	Severity    Severity     `json:"severity" msgpack:"sev"`
	Text        string       `json:"message" msgpack:"text"`
	Line        int          `json:"line" msgpack:"line"`
	Column      int          `json:"column" msgpack:"col"`
	EndLine     int          `json:"endLine,omitempty" msgpack:"eline"`
	EndColumn   int          `json:"endColumn,omitempty" msgpack:"ecol"`
	Fix         *Fix         `json:"fix,omitempty" msgpack:"fix"`
	Suggestions []Suggestion `json:"suggestions,omitempty" msgpack:"sugg"`
}

// HasEnd reports whether the engine supplied an end position.
func (m *Message) HasEnd() bool {
	return m.EndLine > 0
}

// Clone returns a deep copy; Fix and Suggestions are not shared with m.
func (m Message) Clone() Message {
	if m.Fix != nil {
		fix := *m.Fix
		m.Fix = &fix
	}
	if m.Suggestions != nil {
		m.Suggestions = append([]Suggestion(nil), m.Suggestions...)
	}
	return m
}

// Diagnostic is a Message bound to the real file it is reported against.
type Diagnostic struct {
	Path string `json:"path" msgpack:"path"`
	Message
}
