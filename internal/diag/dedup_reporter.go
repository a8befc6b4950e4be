package diag

type dedupKey struct {
	path   string
	rule   string
	sev    Severity
	line   int
	column int
	msg    string
}

// DedupReporter wraps another Reporter and suppresses duplicate diagnostics
// with the same rule, severity, position and message.
// Two engines checking the same document may report one problem twice.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique diagnostics to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(path string, msg Message) {
	if r == nil {
		return
	}
	key := dedupKey{
		path:   path,
		rule:   msg.RuleID,
		sev:    msg.Severity,
		line:   msg.Line,
		column: msg.Column,
		msg:    msg.Text,
	}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(path, msg)
	}
}
