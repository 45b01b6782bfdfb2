package ingest

import "fmt"

// Report tallies one ingestion batch. Every input message lands in exactly
// one bucket.
type Report struct {
	Accepted           int
	RejectedDuplicate  int
	RejectedIrrelevant int
	Failed             int
}

// Total is the number of messages the report accounts for.
func (r Report) Total() int {
	return r.Accepted + r.RejectedDuplicate + r.RejectedIrrelevant + r.Failed
}

// Add folds o into r.
func (r *Report) Add(o Report) {
	r.Accepted += o.Accepted
	r.RejectedDuplicate += o.RejectedDuplicate
	r.RejectedIrrelevant += o.RejectedIrrelevant
	r.Failed += o.Failed
}

// Summary is the one-line status shown after a fetch.
func (r Report) Summary() string {
	s := "no new emails"
	switch r.Accepted {
	case 0:
	case 1:
		s = "added 1 new email"
	default:
		s = fmt.Sprintf("added %d new emails", r.Accepted)
	}
	s += fmt.Sprintf(" (%d duplicate, %d not job-related", r.RejectedDuplicate, r.RejectedIrrelevant)
	if r.Failed > 0 {
		s += fmt.Sprintf(", %d failed", r.Failed)
	}
	return s + ")"
}
