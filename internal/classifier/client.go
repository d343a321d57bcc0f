// Package classifier implements the expensive second stage of the triage
// funnel: one LLM call per escalated event, lenient parsing of the model's
// free-form answer, and reconciliation of the verdict label against the
// numeric score.
package classifier

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/event"
)

// Provider is any LLM backend that can turn a prompt into raw text.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client classifies events through a Provider. Analyze is total: every
// failure mode degrades to an uncertain verdict, never an error.
type Client struct {
	provider Provider
	timeout  time.Duration
	logger   log.Logger
}

// New creates a classifier client. The timeout bounds each provider call;
// on expiry Analyze returns the uncertain fallback instead of blocking.
func New(provider Provider, timeout time.Duration, logger log.Logger) *Client {
	if logger == nil {
		logger = log.Nop()
	}
	return &Client{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// Analyze classifies one event. The returned verdict is always well-formed
// and already reconciled; callers can branch on Verdict without nil checks.
func (c *Client) Analyze(ctx context.Context, ev event.Event) *Verdict {
	prompt := BuildPrompt(ev)

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.provider.Generate(cctx, prompt)
	if err != nil {
		reason := "llm_call_failed: " + err.Error()
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			reason = "llm_call_failed: request timed out"
		}
		c.logger.Warn(ctx, "classifier call failed", "event_id", ev.ID(), "error", err)
		return Uncertain(truncate(reason, maxRawInReason))
	}

	v, err := Parse(raw)
	if err != nil {
		c.logger.Warn(ctx, "classifier output not parseable", "event_id", ev.ID(), "raw_len", len(raw))
		return Uncertain("llm_parse_failed", truncate(raw, maxRawInReason))
	}
	return v
}
