package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	eventsTotal        *prometheus.CounterVec
	transitionDuration prometheus.Histogram
	completedTotal     prometheus.Counter
	deliveryFailures   *prometheus.CounterVec
}

// NewPrometheusRecorder registers the interview metrics on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inspector_events_total",
				Help: "Inbound interview events by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		transitionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inspector_transition_duration_seconds",
				Help:    "Time to process one inbound event including store access",
				Buckets: prometheus.DefBuckets,
			},
		),
		completedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "inspector_sessions_completed_total",
				Help: "Inspections that reached the completed phase",
			},
		),
		deliveryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inspector_delivery_failures_total",
				Help: "Outbound actions the transport failed to deliver",
			},
			[]string{"kind"},
		),
	}
}

// ObserveEvent counts one inbound event.
func (p *PrometheusRecorder) ObserveEvent(kind, outcome string) {
	p.eventsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveTransition records processing latency.
func (p *PrometheusRecorder) ObserveTransition(duration time.Duration) {
	p.transitionDuration.Observe(duration.Seconds())
}

// IncCompleted counts a finished inspection.
func (p *PrometheusRecorder) IncCompleted() {
	p.completedTotal.Inc()
}

// IncDeliveryFailure counts a failed outbound action.
func (p *PrometheusRecorder) IncDeliveryFailure(kind string) {
	p.deliveryFailures.WithLabelValues(kind).Inc()
}
