package classifier

import (
	"encoding/json"
	"errors"
	"strings"
)

// maxRawInReason bounds how much raw model text is carried into a fallback
// verdict's reasons for auditing.
const maxRawInReason = 400

// ErrNoVerdict means no usable verdict object could be extracted from the
// model output. A parse only succeeds when a numeric score is present; the
// score is what reconciliation is anchored on.
var ErrNoVerdict = errors.New("classifier: no verdict object in model output")

// rawVerdict is the lenient wire shape. Score is a pointer so a missing
// score is distinguishable from an explicit zero.
type rawVerdict struct {
	Verdict           string   `json:"verdict"`
	Score             *float64 `json:"score"`
	Reasons           []string `json:"reasons"`
	RecommendedAction string   `json:"recommended_action"`
}

// Parse extracts a Verdict from free-form model text. Stages: the whole text
// as JSON, then the outermost brace-delimited substring. The result is
// reconciled so the verdict label always agrees with the score.
func Parse(raw string) (*Verdict, error) {
	rv, ok := decode(raw)
	if !ok {
		sub, found := braceSubstring(raw)
		if found {
			rv, ok = decode(sub)
		}
	}
	if !ok || rv.Score == nil {
		return nil, ErrNoVerdict
	}
	return reconcile(rv), nil
}

func decode(s string) (rawVerdict, bool) {
	var rv rawVerdict
	if err := json.Unmarshal([]byte(s), &rv); err != nil {
		return rawVerdict{}, false
	}
	return rv, true
}

// braceSubstring returns the span from the first "{" to the last "}".
func braceSubstring(s string) (string, bool) {
	i := strings.Index(s, "{")
	j := strings.LastIndex(s, "}")
	if i < 0 || j <= i {
		return "", false
	}
	return s[i : j+1], true
}

// reconcile forces the verdict label to agree with the numeric score. The
// upstream label is advisory only: score >= 0.5 means malicious, below means
// benign, and missing recommended actions get the matching default.
func reconcile(rv rawVerdict) *Verdict {
	v := &Verdict{
		Verdict:           Label(strings.ToLower(strings.TrimSpace(rv.Verdict))),
		Score:             *rv.Score,
		Reasons:           rv.Reasons,
		RecommendedAction: Action(strings.ToLower(strings.TrimSpace(rv.RecommendedAction))),
	}

	switch {
	case v.Score >= 0.5 && v.Verdict != VerdictMalicious:
		v.Verdict = VerdictMalicious
		if v.RecommendedAction == "" {
			v.RecommendedAction = ActionBlockIP
		}
	case v.Score < 0.5 && v.Verdict != VerdictBenign:
		v.Verdict = VerdictBenign
		if v.RecommendedAction == "" {
			v.RecommendedAction = ActionMonitor
		}
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
