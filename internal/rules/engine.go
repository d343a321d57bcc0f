// Package rules implements the cheap, deterministic first stage of the
// triage funnel: additive heuristics over one event producing a score in
// [0,1], the list of heuristics that fired, and a coarse verdict.
package rules

import (
	"strings"

	"github.com/linnemanlabs/warden/internal/event"
)

// Label is the rule-stage verdict.
type Label string

const (
	VerdictBenign     Label = "benign"
	VerdictMonitor    Label = "monitor"
	VerdictSuspicious Label = "suspicious"
)

// Heuristic weights. Independent contributions, summed then clamped.
const (
	weightKeyword      = 0.25
	weightPacketVolume = 0.3
	weightByteVolume   = 0.2
	weightHighRiskSig  = 0.6
	weightAlertKind    = 0.5
)

// Verdict is the rule engine's output for one event. Never persisted on its
// own; always embedded in a Trace.
type Verdict struct {
	Score        float64  `json:"score"`
	MatchedRules []string `json:"matched_rules"`
	Verdict      Label    `json:"verdict"`
}

// Engine scores events against a fixed policy. Stateless and safe for
// concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given policy.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.normalized()}
}

// Evaluate scores one event. Total, side-effect-free, deterministic.
func (e *Engine) Evaluate(ev event.Event) Verdict {
	var (
		score   float64
		matched []string
	)

	text := strings.ToLower(ev.Text())
	for _, kw := range e.cfg.Keywords {
		if strings.Contains(text, kw) {
			score += weightKeyword
			matched = append(matched, "keyword:"+kw)
		}
	}

	if ev.FirstInt("conn_count", "flow_pkts_toserver", "flow_pkts_toclient") > e.cfg.PacketThreshold {
		score += weightPacketVolume
		matched = append(matched, "high_pkts_conn")
	}

	if ev.FirstInt("flow_bytes_toserver", "flow_bytes_toclient") > e.cfg.ByteThreshold {
		score += weightByteVolume
		matched = append(matched, "high_bytes")
	}

	sig := strings.ToLower(ev.Str("alert_signature"))
	if sig == "" {
		sig = strings.ToLower(ev.Str("alert_signature_id"))
	}
	if sig != "" {
		for _, phrase := range e.cfg.HighRiskSignatures {
			if strings.Contains(sig, phrase) {
				score += weightHighRiskSig
				matched = append(matched, "high_risk_signature")
				break
			}
		}
	}

	if ev.IsAlert() {
		score += weightAlertKind
		matched = append(matched, "event_type:alert")
	}

	if score > 1 {
		score = 1
	}

	// Suspicious is checked before monitor. See Config for why the order is
	// fixed even though the default thresholds invert the bands.
	verdict := VerdictBenign
	switch {
	case score >= e.cfg.SuspiciousThreshold:
		verdict = VerdictSuspicious
	case score >= e.cfg.MonitorThreshold:
		verdict = VerdictMonitor
	}

	return Verdict{Score: score, MatchedRules: matched, Verdict: verdict}
}
