package triage

import (
	"context"

	"github.com/linnemanlabs/warden/internal/classifier"
	"github.com/linnemanlabs/warden/internal/event"
)

// Classifier is the expensive second stage. Analyze is total: it blocks at
// most for its configured timeout and always returns a well-formed verdict.
type Classifier interface {
	Analyze(ctx context.Context, ev event.Event) *classifier.Verdict
}

// History is the bounded in-memory record of recent traces. Inserts are
// serialized by the implementation; Recent never blocks writers for long.
type History interface {
	Insert(tr *Trace)
	Recent(n int) []*Trace
	Len() int
}

// Archive is an optional durable store for completed traces (e.g. Postgres).
type Archive interface {
	Append(ctx context.Context, tr *Trace) error
}

// Publisher receives each completed trace for live consumers (e.g. the
// WebSocket stream). Publish must not block the pipeline.
type Publisher interface {
	Publish(tr *Trace)
}

// MultiPublisher fans each trace out to every member in order.
type MultiPublisher []Publisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(tr *Trace) {
	for _, p := range m {
		p.Publish(tr)
	}
}
