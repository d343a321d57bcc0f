package triage

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/warden/internal/classifier"
	"github.com/linnemanlabs/warden/internal/event"
	"github.com/linnemanlabs/warden/internal/responder"
	"github.com/linnemanlabs/warden/internal/rules"
	"github.com/linnemanlabs/warden/internal/sink"
)

// escalationReason is the fixed reason tag attached to pipeline-initiated
// response actions.
const escalationReason = "auto-detected"

// Hooks are optional observation points the pipeline calls as it runs.
// Nil funcs are skipped. Wired to Prometheus by Metrics.Hooks().
type Hooks struct {
	OnRuleVerdict    func(score float64, verdict rules.Label)
	OnClassifierCall func(verdict classifier.Label, fallback bool, seconds float64)
	OnAction         func(action classifier.Action)
	OnTrace          func(outcome Outcome)
	OnHistorySize    func(n int)
}

// Pipeline runs events through the three-stage funnel. One pipeline owns
// its rule engine, classifier, dispatcher, and history for its lifetime;
// multiple pipelines may share nothing but a History implementation.
type Pipeline struct {
	engine     *rules.Engine
	classifier Classifier
	responder  *responder.Dispatcher
	history    History
	traces     sink.Sink
	archive    Archive   // optional
	publisher  Publisher // optional
	logger     log.Logger
	hooks      Hooks
	now        func() time.Time
}

// NewPipeline composes the funnel. traces, archive, and publisher may be
// nil; the in-memory history is required.
func NewPipeline(
	engine *rules.Engine,
	cls Classifier,
	resp *responder.Dispatcher,
	history History,
	traces sink.Sink,
	archive Archive,
	publisher Publisher,
	logger log.Logger,
	hooks Hooks,
) *Pipeline {
	if logger == nil {
		logger = log.Nop()
	}
	return &Pipeline{
		engine:     engine,
		classifier: cls,
		responder:  resp,
		history:    history,
		traces:     traces,
		archive:    archive,
		publisher:  publisher,
		logger:     logger,
		hooks:      hooks,
		now:        time.Now,
	}
}

// Process runs one event to a terminal outcome and returns its Trace. The
// only blocking step is the classifier call, which is bounded by the
// classifier's own timeout. Process never fails: degraded classifier
// verdicts are recorded in the trace for audit.
func (p *Pipeline) Process(ctx context.Context, ev event.Event) *Trace {
	tr := &Trace{
		ID:      ulid.Make().String(),
		EventID: ev.ID(),
	}

	tr.Rule = p.engine.Evaluate(ev)
	if p.hooks.OnRuleVerdict != nil {
		p.hooks.OnRuleVerdict(tr.Rule.Score, tr.Rule.Verdict)
	}

	L := p.logger.With("trace_id", tr.ID, "event_id", tr.EventID)

	// Confidently benign non-alert events never reach the classifier.
	if tr.Rule.Verdict == rules.VerdictBenign && !ev.IsAlert() {
		tr.Classifier = classifier.Skipped("rule_based_benign")
		p.record(ctx, L, tr)
		return tr
	}

	start := p.now()
	tr.Classifier = p.classifier.Analyze(ctx, ev)
	if p.hooks.OnClassifierCall != nil {
		fallback := tr.Classifier.Verdict == classifier.VerdictUncertain
		p.hooks.OnClassifierCall(tr.Classifier.Verdict, fallback, time.Since(start).Seconds())
	}

	if tr.Classifier.Verdict == classifier.VerdictMalicious {
		action := tr.Classifier.RecommendedAction
		if action == "" {
			action = classifier.ActionBlockIP
		}
		tr.Response = p.responder.Execute(ctx, ev, action, escalationReason)
		if p.hooks.OnAction != nil {
			p.hooks.OnAction(action)
		}
	}

	p.record(ctx, L, tr)
	return tr
}

// ProcessBatch runs a finite slice of events sequentially, FIFO.
func (p *Pipeline) ProcessBatch(ctx context.Context, evs []event.Event) []*Trace {
	out := make([]*Trace, 0, len(evs))
	for _, ev := range evs {
		out = append(out, p.Process(ctx, ev))
	}
	return out
}

// record is the single emission point: every terminal path writes the trace
// exactly once to the history ring, the trace sink, and the optional
// archive and publisher.
func (p *Pipeline) record(ctx context.Context, L log.Logger, tr *Trace) {
	tr.LoggedAt = p.now().UTC()

	p.history.Insert(tr)
	if p.hooks.OnHistorySize != nil {
		p.hooks.OnHistorySize(p.history.Len())
	}

	if p.traces != nil {
		if err := p.traces.Append(ctx, tr); err != nil {
			L.Error(ctx, err, "failed to persist trace")
		}
	}
	if p.archive != nil {
		if err := p.archive.Append(ctx, tr); err != nil {
			L.Error(ctx, err, "failed to archive trace")
		}
	}
	if p.publisher != nil {
		p.publisher.Publish(tr)
	}

	outcome := tr.Outcome()
	if p.hooks.OnTrace != nil {
		p.hooks.OnTrace(outcome)
	}

	L.Info(ctx, "trace recorded",
		"outcome", outcome,
		"rule_score", tr.Rule.Score,
		"rule_verdict", tr.Rule.Verdict,
		"classifier_verdict", tr.Classifier.Verdict,
	)
}
