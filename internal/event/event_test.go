package event

import (
	"encoding/json"
	"testing"
)

func TestID_PrefersExplicitID(t *testing.T) {
	t.Parallel()

	e := Event{"_id": "abc-123", "flow_id": float64(998877)}
	if got := e.ID(); got != "abc-123" {
		t.Errorf("ID = %q, want %q", got, "abc-123")
	}
}

func TestID_FallsBackToFlowID(t *testing.T) {
	t.Parallel()

	e := Event{"flow_id": float64(998877)}
	if got := e.ID(); got != "998877" {
		t.Errorf("ID = %q, want %q", got, "998877")
	}
}

func TestID_Empty(t *testing.T) {
	t.Parallel()

	e := Event{"event_type": "fileinfo"}
	if got := e.ID(); got != "" {
		t.Errorf("ID = %q, want empty", got)
	}
}

func TestKind_CaseInsensitive(t *testing.T) {
	t.Parallel()

	e := Event{"event_type": "Alert"}
	if e.Kind() != "alert" {
		t.Errorf("Kind = %q, want %q", e.Kind(), "alert")
	}
	if !e.IsAlert() {
		t.Error("expected IsAlert for event_type=Alert")
	}
}

func TestInt_Coercions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		e    Event
		key  string
		want int64
	}{
		{"float", Event{"n": float64(42)}, "n", 42},
		{"string", Event{"n": "150"}, "n", 150},
		{"string padded", Event{"n": " 7 "}, "n", 7},
		{"garbage string", Event{"n": "lots"}, "n", 0},
		{"nil", Event{"n": nil}, "n", 0},
		{"absent", Event{}, "n", 0},
		{"bool", Event{"n": true}, "n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.e.Int(tt.key); got != tt.want {
				t.Errorf("Int(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}

func TestFirstInt_SkipsZeroAndAbsent(t *testing.T) {
	t.Parallel()

	e := Event{"conn_count": float64(0), "flow_pkts_toserver": nil, "flow_pkts_toclient": float64(5)}
	got := e.FirstInt("conn_count", "flow_pkts_toserver", "flow_pkts_toclient")
	if got != 5 {
		t.Errorf("FirstInt = %d, want 5", got)
	}
}

func TestSourceAddr_Order(t *testing.T) {
	t.Parallel()

	e := Event{"src_ip": "10.0.0.9", "source_ip": "203.0.113.5"}
	if got := e.SourceAddr(); got != "203.0.113.5" {
		t.Errorf("SourceAddr = %q, want %q", got, "203.0.113.5")
	}

	if got := (Event{}).SourceAddr(); got != "" {
		t.Errorf("SourceAddr = %q, want empty", got)
	}
}

func TestText_RoundTrips(t *testing.T) {
	t.Parallel()

	e := Event{"event_type": "alert", "src_ip": "1.2.3.4"}
	var back map[string]any
	if err := json.Unmarshal([]byte(e.Text()), &back); err != nil {
		t.Fatalf("Text did not produce valid JSON: %v", err)
	}
	if back["src_ip"] != "1.2.3.4" {
		t.Errorf("round-trip src_ip = %v, want 1.2.3.4", back["src_ip"])
	}
}
