// Package metrics exports form lifecycle events as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-formstate/pkg/observability"
)

// Data keys read from events.
const (
	KeyDuration   = observability.KeyDuration
	KeyViolations = observability.KeyViolations
	KeyEngine     = observability.KeyEngine
	KeyFormID     = observability.KeyFormID
)

// Observer is an observability.Observer backed by Prometheus collectors.
type Observer struct {
	events          *prometheus.CounterVec
	submitDuration  prometheus.Histogram
	ruleDuration    *prometheus.HistogramVec
	violations      *prometheus.GaugeVec
	persistFailures prometheus.Counter
}

// NewObserver registers the form collectors on reg. A nil registerer uses
// prometheus.DefaultRegisterer.
func NewObserver(reg prometheus.Registerer, namespace string) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Observer{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "formstate_events_total",
			Help:      "Total form lifecycle events by type",
		}, []string{"type"}),
		submitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "formstate_submit_duration_seconds",
			Help:      "Submit handler duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
		ruleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "formstate_rule_duration_seconds",
			Help:      "Rule expression evaluation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 12), // 10us to ~40ms
		}, []string{"engine"}),
		violations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "formstate_violations",
			Help:      "Violations reported by the latest validation run",
		}, []string{"form_id"}),
		persistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "formstate_persist_failures_total",
			Help:      "Total failed snapshot loads and saves",
		}),
	}
}

func (o *Observer) OnEvent(_ context.Context, event observability.Event) {
	o.events.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case observability.EventSubmitCompleted, observability.EventSubmitFailed:
		if d, ok := durationOf(event.Data); ok {
			o.submitDuration.Observe(d.Seconds())
		}
	case observability.EventRuleEvaluated:
		if d, ok := durationOf(event.Data); ok {
			engine, _ := event.Data[KeyEngine].(string)
			if engine == "" {
				engine = "unknown"
			}
			o.ruleDuration.WithLabelValues(engine).Observe(d.Seconds())
		}
	case observability.EventValidated:
		if count, ok := event.Data[KeyViolations].(int); ok {
			formID, _ := event.Data[KeyFormID].(string)
			o.violations.WithLabelValues(formID).Set(float64(count))
		}
	case observability.EventPersistFailed:
		o.persistFailures.Inc()
	}
}

func durationOf(data map[string]any) (time.Duration, bool) {
	d, ok := data[KeyDuration].(time.Duration)
	return d, ok
}

var _ observability.Observer = (*Observer)(nil)
