package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/event"
)

// fakeProvider returns canned text or an error.
type fakeProvider struct {
	raw   string
	err   error
	block bool // block until the context is cancelled

	calls int
}

func (f *fakeProvider) Generate(ctx context.Context, _ string) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.raw, f.err
}

func testEvent() event.Event {
	return event.Event{
		"_id":        "ev-1",
		"event_type": "alert",
		"src_ip":     "203.0.113.5",
	}
}

func TestAnalyze_ParsedVerdict(t *testing.T) {
	t.Parallel()

	c := New(&fakeProvider{raw: `{"verdict":"malicious","score":0.9,"recommended_action":"block_ip"}`}, time.Second, log.Nop())

	v := c.Analyze(context.Background(), testEvent())
	if v.Verdict != VerdictMalicious {
		t.Errorf("verdict = %q, want %q", v.Verdict, VerdictMalicious)
	}
	if v.Score != 0.9 {
		t.Errorf("score = %v, want 0.9", v.Score)
	}
}

func TestAnalyze_TransportErrorIsUncertain(t *testing.T) {
	t.Parallel()

	c := New(&fakeProvider{err: errors.New("dial tcp: connection refused")}, time.Second, log.Nop())

	v := c.Analyze(context.Background(), testEvent())
	if v.Verdict != VerdictUncertain {
		t.Errorf("verdict = %q, want %q", v.Verdict, VerdictUncertain)
	}
	if v.Score != 0.5 {
		t.Errorf("score = %v, want 0.5", v.Score)
	}
	if len(v.Reasons) == 0 || !strings.HasPrefix(v.Reasons[0], "llm_call_failed") {
		t.Errorf("reasons = %v, want llm_call_failed category", v.Reasons)
	}
	if v.RecommendedAction != ActionMonitor {
		t.Errorf("action = %q, want %q", v.RecommendedAction, ActionMonitor)
	}
}

func TestAnalyze_TimeoutIsUncertain(t *testing.T) {
	t.Parallel()

	c := New(&fakeProvider{block: true}, 20*time.Millisecond, log.Nop())

	start := time.Now()
	v := c.Analyze(context.Background(), testEvent())
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Analyze blocked for %v, want bounded by timeout", elapsed)
	}

	if v.Verdict != VerdictUncertain {
		t.Errorf("verdict = %q, want %q", v.Verdict, VerdictUncertain)
	}
	if len(v.Reasons) == 0 || !strings.Contains(v.Reasons[0], "timed out") {
		t.Errorf("reasons = %v, want timeout category", v.Reasons)
	}
}

func TestAnalyze_ParseFailureIsUncertain(t *testing.T) {
	t.Parallel()

	c := New(&fakeProvider{raw: "I am not sure what to make of this event."}, time.Second, log.Nop())

	v := c.Analyze(context.Background(), testEvent())
	if v.Verdict != VerdictUncertain {
		t.Errorf("verdict = %q, want %q", v.Verdict, VerdictUncertain)
	}
	if len(v.Reasons) != 2 || v.Reasons[0] != "llm_parse_failed" {
		t.Fatalf("reasons = %v, want [llm_parse_failed, raw]", v.Reasons)
	}
	if !strings.Contains(v.Reasons[1], "not sure") {
		t.Errorf("reasons[1] = %q, want truncated raw text", v.Reasons[1])
	}
}

func TestAnalyze_TruncatesRawInReason(t *testing.T) {
	t.Parallel()

	c := New(&fakeProvider{raw: strings.Repeat("x", 5000)}, time.Second, log.Nop())

	v := c.Analyze(context.Background(), testEvent())
	if len(v.Reasons) != 2 {
		t.Fatalf("reasons = %v, want 2 entries", v.Reasons)
	}
	if len(v.Reasons[1]) != maxRawInReason {
		t.Errorf("raw reason length = %d, want %d", len(v.Reasons[1]), maxRawInReason)
	}
}

func TestAnalyze_PromptContainsEvent(t *testing.T) {
	t.Parallel()

	p := BuildPrompt(testEvent())
	if !strings.Contains(p, `"src_ip":"203.0.113.5"`) {
		t.Errorf("prompt does not embed the serialized event:\n%s", p)
	}
	if !strings.Contains(p, "OUTPUT_EXAMPLE") {
		t.Error("prompt is missing worked examples")
	}
}
