package triage

import (
	"time"

	"github.com/linnemanlabs/warden/internal/classifier"
	"github.com/linnemanlabs/warden/internal/responder"
	"github.com/linnemanlabs/warden/internal/rules"
)

// Outcome is the terminal state a trace reached.
type Outcome string

const (
	// OutcomeShortCircuit means the rule stage was confidently benign and
	// the classifier was never called.
	OutcomeShortCircuit Outcome = "short_circuit"

	// OutcomeNoAction means the classifier ran but did not find the event
	// malicious.
	OutcomeNoAction Outcome = "no_action"

	// OutcomeAction means a simulated response was dispatched.
	OutcomeAction Outcome = "action"
)

// Trace is the complete recorded outcome of one event's trip through the
// pipeline. Exactly one Trace is produced per processed event, written once
// to the history ring and the trace sink after the terminal state.
type Trace struct {
	ID         string                  `json:"id"`
	EventID    string                  `json:"event_id,omitempty"`
	Rule       rules.Verdict           `json:"rule"`
	Classifier *classifier.Verdict     `json:"classifier"`
	Response   *responder.ActionRecord `json:"response"`
	LoggedAt   time.Time               `json:"logged_at"`
}

// Outcome derives the terminal state from the recorded fields.
func (t *Trace) Outcome() Outcome {
	switch {
	case t.Response != nil:
		return OutcomeAction
	case t.Classifier != nil && t.Classifier.Verdict == classifier.VerdictSkipped:
		return OutcomeShortCircuit
	default:
		return OutcomeNoAction
	}
}
