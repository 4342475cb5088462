// Package poller watches uploaded documents until enrichment reaches a
// terminal state, mirroring progress into a clientstate.Store.
package poller

import "docvault/internal/model"

// Action is what the loop does after one status read.
type Action int

const (
	// Continue keeps polling.
	Continue Action = iota
	// Completed stops after the document reached completed.
	Completed
	// Failed stops after the document reached failed.
	Failed
	// TimedOut stops after the attempt ceiling while the document was still in flight.
	TimedOut
	// Abandoned stops on a read error without touching the progress status.
	Abandoned
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Done reports whether the loop stops.
func (a Action) Done() bool { return a != Continue }

// Tracker is the per-document state machine: an attempt counter, a ceiling and
// the terminal predicate. It performs no I/O.
type Tracker struct {
	maxAttempts int
	attempts    int
}

// NewTracker returns a Tracker that gives up after maxAttempts reads.
func NewTracker(maxAttempts int) *Tracker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Tracker{maxAttempts: maxAttempts}
}

// Observe consumes one status read. A terminal status wins over the ceiling
// when both hold on the same read.
func (t *Tracker) Observe(doc *model.Document, err error) Action {
	t.attempts++
	switch {
	case err != nil || doc == nil:
		return Abandoned
	case doc.ProcessingStatus == model.StatusCompleted:
		return Completed
	case doc.ProcessingStatus == model.StatusFailed:
		return Failed
	case t.attempts >= t.maxAttempts:
		return TimedOut
	default:
		return Continue
	}
}

// Attempts returns the number of reads observed so far.
func (t *Tracker) Attempts() int { return t.attempts }
