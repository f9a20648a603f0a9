package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the selection counters exported on /metrics.
type Metrics struct {
	EventsProcessed prometheus.Counter
	EventErrors     prometheus.Counter
	Selected        *prometheus.CounterVec
	SweepSeconds    prometheus.Histogram
	EventWeight     *prometheus.HistogramVec
}

// NewMetrics creates the selection metrics and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objsel_events_processed_total",
			Help: "Events that completed the systematic sweep",
		}),
		EventErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objsel_event_errors_total",
			Help: "Events rejected by the source or the weight lookup",
		}),
		Selected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "objsel_selected_candidates_total",
			Help: "Candidates passing a level under the nominal systematic",
		}, []string{"collection", "level"}),
		SweepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "objsel_sweep_duration_seconds",
			Help:    "Wall time of one event's systematic sweep",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		EventWeight: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "objsel_event_weight",
			Help:    "Event weight per systematic pass",
			Buckets: prometheus.LinearBuckets(0, 0.25, 10),
		}, []string{"pass"}),
	}
	if reg != nil {
		reg.MustRegister(m.EventsProcessed, m.EventErrors, m.Selected, m.SweepSeconds, m.EventWeight)
	}
	return m
}
