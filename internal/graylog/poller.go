package graylog

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/sink"
)

// Poller periodically pulls a window of events from Graylog and appends them
// to the event sink (the NDJSON file the pipeline tails). Fetch failures are
// logged and retried on the next tick; the poller never gives up.
type Poller struct {
	client   *Client
	events   sink.Sink
	interval time.Duration
	window   time.Duration
	limit    int
	logger   log.Logger
}

// NewPoller creates a poller. Window should cover at least one interval so
// no events fall between polls; duplicates are acceptable, gaps are not.
func NewPoller(client *Client, events sink.Sink, interval, window time.Duration, limit int, logger log.Logger) *Poller {
	if logger == nil {
		logger = log.Nop()
	}
	return &Poller{
		client:   client,
		events:   events,
		interval: interval,
		window:   window,
		limit:    limit,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info(ctx, "graylog poller started",
		"interval", p.interval.String(),
		"window", p.window.String(),
		"limit", p.limit,
	)

	for {
		p.poll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	events, err := p.client.Search(ctx, p.window, p.limit)
	if err != nil {
		p.logger.Error(ctx, err, "graylog poll failed")
		return
	}

	appended := 0
	for _, ev := range events {
		if err := p.events.Append(ctx, ev); err != nil {
			p.logger.Error(ctx, err, "failed to append polled event")
			continue
		}
		appended++
	}

	p.logger.Info(ctx, "graylog poll completed",
		"fetched", len(events),
		"appended", appended,
	)
}
