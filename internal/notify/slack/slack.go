// Package slack announces dispatched response actions to Slack via incoming
// webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/classifier"
	"github.com/linnemanlabs/warden/internal/triage"
)

const (
	maxReasonLen = 3000
	httpTimeout  = 10 * time.Second
	sendTimeout  = 15 * time.Second
)

// Notifier posts action traces to a Slack webhook. It implements
// triage.Publisher: traces that dispatched no action are ignored, and
// delivery happens off the pipeline goroutine.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// Publish sends a notification for traces that dispatched an action. It
// never blocks the caller.
func (n *Notifier) Publish(tr *triage.Trace) {
	if tr.Outcome() != triage.OutcomeAction {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.Send(ctx, tr); err != nil {
			n.logger.Error(ctx, err, "slack notification failed", "trace_id", tr.ID)
		}
	}()
}

// Send posts one trace to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, tr *triage.Trace) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(tr)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(tr *triage.Trace) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(tr),
			{"type": "divider"},
			fieldsBlock(tr),
			{"type": "divider"},
			reasonsBlock(tr),
			{"type": "divider"},
			contextBlock(tr),
		},
	}
}

func headerBlock(tr *triage.Trace) map[string]any {
	action := classifier.ActionBlockIP
	if tr.Response != nil {
		action = tr.Response.Action
	}
	text := fmt.Sprintf("%s Simulated action: %s", actionEmoji(action), action)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(tr *triage.Trace) map[string]any {
	target := "-"
	country := "-"
	if tr.Response != nil {
		if tr.Response.Target != "" {
			target = tr.Response.Target
		}
		if tr.Response.TargetCountry != "" {
			country = tr.Response.TargetCountry
		}
	}
	score := 0.0
	if tr.Classifier != nil {
		score = tr.Classifier.Score
	}

	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Target:* %s", target),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Country:* %s", country),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Event:* %s", orDash(tr.EventID)),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Rule score:* %.2f (%s)", tr.Rule.Score, tr.Rule.Verdict),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Classifier score:* %.2f", score),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func reasonsBlock(tr *triage.Trace) map[string]any {
	var lines []string
	if tr.Classifier != nil {
		lines = append(lines, tr.Classifier.Reasons...)
	}
	lines = append(lines, tr.Rule.MatchedRules...)

	text := truncate(strings.Join(lines, "\n"), maxReasonLen)
	if text == "" {
		text = "_No reasons recorded._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Reasons*\n\n%s", text),
		},
	}
}

func contextBlock(tr *triage.Trace) map[string]any {
	ts := tr.LoggedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("warden • trace %s • %s", tr.ID, ts.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func actionEmoji(action classifier.Action) string {
	switch action {
	case classifier.ActionBlockIP:
		return "\U0001f534" // red circle
	case classifier.ActionNotify:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
