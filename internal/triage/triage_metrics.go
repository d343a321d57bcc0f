package triage

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/warden/internal/classifier"
	"github.com/linnemanlabs/warden/internal/rules"
)

// Metrics holds Prometheus metrics for the triage pipeline.
type Metrics struct {
	TracesTotal         *prometheus.CounterVec
	RuleScore           prometheus.Histogram
	RuleVerdictsTotal   *prometheus.CounterVec
	ClassifierCalls     *prometheus.CounterVec
	ClassifierFallbacks prometheus.Counter
	ClassifierDuration  prometheus.Histogram
	ActionsTotal        *prometheus.CounterVec
	HistorySize         prometheus.Gauge
}

// NewMetrics registers and returns pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TracesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_traces_total",
			Help: "Completed traces by terminal outcome.",
		}, []string{"outcome"}),
		RuleScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_rule_score",
			Help:    "Rule-stage heuristic score per event.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 .. 1.0
		}),
		RuleVerdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_rule_verdicts_total",
			Help: "Rule-stage verdicts by label.",
		}, []string{"verdict"}),
		ClassifierCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_classifier_calls_total",
			Help: "Classifier invocations by reconciled verdict.",
		}, []string{"verdict"}),
		ClassifierFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_classifier_fallbacks_total",
			Help: "Classifier calls that degraded to the uncertain fallback.",
		}),
		ClassifierDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_classifier_duration_seconds",
			Help:    "Duration of classifier calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. ~64s
		}),
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_actions_total",
			Help: "Simulated response actions by kind.",
		}, []string{"action"}),
		HistorySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "warden_history_size",
			Help: "Traces currently held in the in-memory history ring.",
		}),
	}

	reg.MustRegister(
		m.TracesTotal,
		m.RuleScore,
		m.RuleVerdictsTotal,
		m.ClassifierCalls,
		m.ClassifierFallbacks,
		m.ClassifierDuration,
		m.ActionsTotal,
		m.HistorySize,
	)

	return m
}

// Hooks returns pipeline hooks that increment the corresponding metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnRuleVerdict: func(score float64, verdict rules.Label) {
			m.RuleScore.Observe(score)
			m.RuleVerdictsTotal.WithLabelValues(string(verdict)).Inc()
		},
		OnClassifierCall: func(verdict classifier.Label, fallback bool, seconds float64) {
			m.ClassifierCalls.WithLabelValues(string(verdict)).Inc()
			m.ClassifierDuration.Observe(seconds)
			if fallback {
				m.ClassifierFallbacks.Inc()
			}
		},
		OnAction: func(action classifier.Action) {
			m.ActionsTotal.WithLabelValues(string(action)).Inc()
		},
		OnTrace: func(outcome Outcome) {
			m.TracesTotal.WithLabelValues(string(outcome)).Inc()
		},
		OnHistorySize: func(n int) {
			m.HistorySize.Set(float64(n))
		},
	}
}
