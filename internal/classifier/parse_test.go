package classifier

import (
	"reflect"
	"testing"
)

func TestParse_WholeBodyJSON(t *testing.T) {
	t.Parallel()

	v, err := Parse(`{"verdict":"malicious","score":0.93,"reasons":["bruteforce pattern"],"recommended_action":"block_ip"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Verdict != VerdictMalicious {
		t.Errorf("verdict = %q, want %q", v.Verdict, VerdictMalicious)
	}
	if v.Score != 0.93 {
		t.Errorf("score = %v, want 0.93", v.Score)
	}
	if v.RecommendedAction != ActionBlockIP {
		t.Errorf("action = %q, want %q", v.RecommendedAction, ActionBlockIP)
	}
	if !reflect.DeepEqual(v.Reasons, []string{"bruteforce pattern"}) {
		t.Errorf("reasons = %v", v.Reasons)
	}
}

func TestParse_EmbeddedJSON(t *testing.T) {
	t.Parallel()

	raw := "Sure! Here is my analysis:\n```json\n" +
		`{"verdict":"benign","score":0.1,"reasons":["routine transfer"],"recommended_action":"monitor"}` +
		"\n```\nLet me know if you need more."

	v, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Verdict != VerdictBenign {
		t.Errorf("verdict = %q, want %q", v.Verdict, VerdictBenign)
	}
	if v.Score != 0.1 {
		t.Errorf("score = %v, want 0.1", v.Score)
	}
}

func TestParse_GarbageFails(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"the event looks fine to me",
		"{not json}",
		"[1,2,3]",
	} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", raw)
		}
	}
}

func TestParse_MissingScoreFails(t *testing.T) {
	t.Parallel()

	// A verdict label without a score is unusable: reconciliation is
	// anchored on the score.
	if _, err := Parse(`{"verdict":"malicious","reasons":["looks bad"]}`); err == nil {
		t.Fatal("expected error for verdict without score")
	}
}

func TestParse_HighScoreForcesMalicious(t *testing.T) {
	t.Parallel()

	v, err := Parse(`{"verdict":"benign","score":0.9}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Verdict != VerdictMalicious {
		t.Errorf("verdict = %q, want forced %q", v.Verdict, VerdictMalicious)
	}
	if v.RecommendedAction != ActionBlockIP {
		t.Errorf("action = %q, want defaulted %q", v.RecommendedAction, ActionBlockIP)
	}
}

func TestParse_LowScoreForcesBenign(t *testing.T) {
	t.Parallel()

	v, err := Parse(`{"verdict":"malicious","score":0.2,"recommended_action":"block_ip"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Verdict != VerdictBenign {
		t.Errorf("verdict = %q, want forced %q", v.Verdict, VerdictBenign)
	}
	// An explicit upstream action is kept even when the label is overridden.
	if v.RecommendedAction != ActionBlockIP {
		t.Errorf("action = %q, want kept %q", v.RecommendedAction, ActionBlockIP)
	}
}

func TestParse_BoundaryScoreIsMalicious(t *testing.T) {
	t.Parallel()

	v, err := Parse(`{"verdict":"uncertain","score":0.5}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Verdict != VerdictMalicious {
		t.Errorf("verdict = %q, want %q (0.5 is malicious)", v.Verdict, VerdictMalicious)
	}
}

func TestParse_ExplicitZeroScore(t *testing.T) {
	t.Parallel()

	v, err := Parse(`{"verdict":"benign","score":0.0}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Verdict != VerdictBenign {
		t.Errorf("verdict = %q, want %q", v.Verdict, VerdictBenign)
	}
	if v.Score != 0 {
		t.Errorf("score = %v, want 0", v.Score)
	}
}

func TestParse_NormalizesCase(t *testing.T) {
	t.Parallel()

	v, err := Parse(`{"verdict":"Malicious","score":0.8,"recommended_action":"Block_IP"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Verdict != VerdictMalicious {
		t.Errorf("verdict = %q, want %q", v.Verdict, VerdictMalicious)
	}
	if v.RecommendedAction != ActionBlockIP {
		t.Errorf("action = %q, want %q", v.RecommendedAction, ActionBlockIP)
	}
}

func TestSkipped_Sentinel(t *testing.T) {
	t.Parallel()

	v := Skipped("rule_based_benign")
	if v.Verdict != VerdictSkipped {
		t.Errorf("verdict = %q, want %q", v.Verdict, VerdictSkipped)
	}
	if v.SkipReason != "rule_based_benign" {
		t.Errorf("reason = %q, want %q", v.SkipReason, "rule_based_benign")
	}
}

func TestUncertain_Shape(t *testing.T) {
	t.Parallel()

	v := Uncertain("llm_parse_failed", "some raw text")
	if v.Verdict != VerdictUncertain {
		t.Errorf("verdict = %q, want %q", v.Verdict, VerdictUncertain)
	}
	if v.Score != 0.5 {
		t.Errorf("score = %v, want 0.5", v.Score)
	}
	if v.RecommendedAction != ActionMonitor {
		t.Errorf("action = %q, want %q", v.RecommendedAction, ActionMonitor)
	}
}
