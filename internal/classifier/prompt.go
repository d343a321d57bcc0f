package classifier

import (
	"strings"

	"github.com/linnemanlabs/warden/internal/event"
)

// Worked examples embedded in every prompt: one benign, one malicious. Small
// local models anchor much better with in-context examples than with schema
// prose alone.
const (
	benignExampleIn  = `{"message":"SSH failed_login attempt from 1.2.3.4","conn_count":1}`
	benignExampleOut = `{"verdict":"benign","score":0.12,"reasons":["single failed login, low volume"],"recommended_action":"monitor"}`

	maliciousExampleIn  = `{"message":"Multiple failed_login and bruteforce pattern from 203.0.113.5","conn_count":120}`
	maliciousExampleOut = `{"verdict":"malicious","score":0.93,"reasons":["high connection count","bruteforce pattern"],"recommended_action":"block_ip"}`
)

// BuildPrompt renders the single-event classification instruction. The
// contract with the model: JSON only, fixed keys, score is authoritative
// (>= 0.5 malicious, below benign).
func BuildPrompt(ev event.Event) string {
	var b strings.Builder
	b.WriteString("You are a concise cybersecurity analyst. Given the single JSON log object below, output JSON ONLY with keys:\n")
	b.WriteString(`  verdict: one of "malicious", "benign", "uncertain"` + "\n")
	b.WriteString("  score: float between 0.0 and 1.0 (higher means more malicious); 0.5 and above is malicious, below is benign\n")
	b.WriteString("  reasons: array of short reasoning strings\n")
	b.WriteString(`  recommended_action: one of "block_ip","notify","monitor"` + "\n\n")
	b.WriteString("Here are examples (do NOT hallucinate beyond the fields):\n")
	b.WriteString("LOG_EXAMPLE: " + benignExampleIn + "\n")
	b.WriteString("OUTPUT_EXAMPLE: " + benignExampleOut + "\n")
	b.WriteString("LOG_EXAMPLE: " + maliciousExampleIn + "\n")
	b.WriteString("OUTPUT_EXAMPLE: " + maliciousExampleOut + "\n\n")
	b.WriteString("Now analyze this log and return JSON only:\n")
	b.WriteString(ev.Text())
	return b.String()
}
