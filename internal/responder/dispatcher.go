// Package responder synthesizes and records simulated remediation actions.
// This is a simulation boundary: no live enforcement happens, every record
// carries status "simulated".
package responder

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/classifier"
	"github.com/linnemanlabs/warden/internal/event"
	"github.com/linnemanlabs/warden/internal/geoip"
	"github.com/linnemanlabs/warden/internal/sink"
)

// StatusSimulated is the only status a dispatcher ever records.
const StatusSimulated = "simulated"

// AgentName identifies the dispatcher in action records.
const AgentName = "responder"

// ActionRecord is one executed (simulated) response. Append-only.
type ActionRecord struct {
	Agent         string            `json:"agent"`
	Action        classifier.Action `json:"action"`
	Target        string            `json:"target,omitempty"`
	TargetCountry string            `json:"target_country,omitempty"`
	EventID       string            `json:"event_id"`
	Reason        string            `json:"reason"`
	Timestamp     time.Time         `json:"time"`
	Status        string            `json:"status"`
}

// Dispatcher executes simulated actions and appends them to the action sink.
type Dispatcher struct {
	actions sink.Sink
	geo     *geoip.Resolver
	logger  log.Logger
	now     func() time.Time
}

// New creates a dispatcher. geo may be nil; actions may be nil when no
// durable action log is configured.
func New(actions sink.Sink, geo *geoip.Resolver, logger log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Nop()
	}
	return &Dispatcher{
		actions: actions,
		geo:     geo,
		logger:  logger,
		now:     time.Now,
	}
}

// Execute records one simulated action against the event's source address.
// Construction cannot fail; a sink write failure is logged and the record is
// still returned.
func (d *Dispatcher) Execute(ctx context.Context, ev event.Event, action classifier.Action, reason string) *ActionRecord {
	target := ev.SourceAddr()

	rec := &ActionRecord{
		Agent:         AgentName,
		Action:        action,
		Target:        target,
		TargetCountry: d.geo.Country(target),
		EventID:       ev.ID(),
		Reason:        reason,
		Timestamp:     d.now().UTC(),
		Status:        StatusSimulated,
	}

	if d.actions != nil {
		if err := d.actions.Append(ctx, rec); err != nil {
			d.logger.Error(ctx, err, "failed to persist action record",
				"event_id", rec.EventID,
				"action", rec.Action,
			)
		}
	}

	d.logger.Info(ctx, "simulated action dispatched",
		"event_id", rec.EventID,
		"action", rec.Action,
		"target", rec.Target,
		"reason", rec.Reason,
	)
	return rec
}
