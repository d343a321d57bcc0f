package classifier

// Label is the classifier-stage verdict.
type Label string

const (
	VerdictMalicious Label = "malicious"
	VerdictBenign    Label = "benign"
	VerdictUncertain Label = "uncertain"

	// VerdictSkipped is the pipeline's short-circuit sentinel. Providers
	// never produce it.
	VerdictSkipped Label = "skipped"
)

// Action is a remediation the classifier may recommend.
type Action string

const (
	ActionBlockIP Action = "block_ip"
	ActionNotify  Action = "notify"
	ActionMonitor Action = "monitor"
)

// Verdict is the canonical classifier output for one event. Analyze always
// returns a well-formed Verdict; transport and parse failures degrade to the
// uncertain shape rather than surfacing as errors.
type Verdict struct {
	Verdict           Label    `json:"verdict"`
	Score             float64  `json:"score"`
	Reasons           []string `json:"reasons,omitempty"`
	RecommendedAction Action   `json:"recommended_action,omitempty"`

	// SkipReason is set only on the short-circuit sentinel.
	SkipReason string `json:"reason,omitempty"`
}

// Skipped returns the sentinel recorded when the rule stage short-circuits
// and no classifier call is made.
func Skipped(reason string) *Verdict {
	return &Verdict{Verdict: VerdictSkipped, SkipReason: reason}
}

// Uncertain returns the degraded verdict used when the classifier cannot
// produce a usable answer. Score 0.5 keeps it out of both forced bands.
func Uncertain(reasons ...string) *Verdict {
	return &Verdict{
		Verdict:           VerdictUncertain,
		Score:             0.5,
		Reasons:           reasons,
		RecommendedAction: ActionMonitor,
	}
}
