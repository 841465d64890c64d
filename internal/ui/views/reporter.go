package views

// Reporter receives failures the list view swallows. Nothing reported here
// is shown to the user; it goes to the operator (log file, notifications).
type Reporter interface {
	// ReportFailure is called once per failed service call
	ReportFailure(op string, err error)
	// ReportDiscard is called when a response arrives after a newer one for
	// the same task was already applied
	ReportDiscard(op, taskID string)
}

// MultiReporter fans out to several reporters
type MultiReporter []Reporter

func (m MultiReporter) ReportFailure(op string, err error) {
	for _, r := range m {
		r.ReportFailure(op, err)
	}
}

func (m MultiReporter) ReportDiscard(op, taskID string) {
	for _, r := range m {
		r.ReportDiscard(op, taskID)
	}
}

type nopReporter struct{}

func (nopReporter) ReportFailure(string, error)  {}
func (nopReporter) ReportDiscard(string, string) {}
