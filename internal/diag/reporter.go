package diag

// Reporter receives diagnostics from the pipeline stages.
type Reporter interface {
	Report(path string, msg Message)
}

// BagReporter writes into a Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(path string, msg Message) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{Path: path, Message: msg})
}

// ReportAll forwards every message of msgs for path.
func ReportAll(r Reporter, path string, msgs []Message) {
	for _, m := range msgs {
		r.Report(path, m)
	}
}
