package interact

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRegistry records client activity.
type MetricsRegistry interface {
	IncrementBatches(operation, outcome string)
	RecordBatchLatency(operation string, duration time.Duration)
	IncrementSessionsStarted()
	IncrementFallbacks(reason string)
}

// Batch outcomes.
const (
	outcomeSuccess    = "success"
	outcomeBatchError = "batch_error"
	outcomeFailure    = "failure"
)

// PrometheusRegistry implements MetricsRegistry with Prometheus collectors.
type PrometheusRegistry struct {
	batches   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	sessions  prometheus.Counter
	fallbacks *prometheus.CounterVec
}

// NewPrometheusRegistry creates the collectors and registers them with reg.
func NewPrometheusRegistry(reg prometheus.Registerer) *PrometheusRegistry {
	r := &PrometheusRegistry{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interact_batches_total",
			Help: "Batches sent to the Interact server by operation and outcome",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interact_batch_duration_seconds",
			Help:    "Interact batch round trip latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "interact_sessions_started_total",
			Help: "Sessions started on the Interact server",
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interact_fallback_offers_total",
			Help: "Fallback offers served by reason",
		}, []string{"reason"}),
	}
	reg.MustRegister(r.batches, r.latency, r.sessions, r.fallbacks)
	return r
}

func (r *PrometheusRegistry) IncrementBatches(operation, outcome string) {
	r.batches.WithLabelValues(operation, outcome).Inc()
}

func (r *PrometheusRegistry) RecordBatchLatency(operation string, duration time.Duration) {
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementSessionsStarted() {
	r.sessions.Inc()
}

func (r *PrometheusRegistry) IncrementFallbacks(reason string) {
	r.fallbacks.WithLabelValues(reason).Inc()
}

// NoopRegistry discards all metrics.
type NoopRegistry struct{}

func (NoopRegistry) IncrementBatches(operation, outcome string)                  {}
func (NoopRegistry) RecordBatchLatency(operation string, duration time.Duration) {}
func (NoopRegistry) IncrementSessionsStarted()                                   {}
func (NoopRegistry) IncrementFallbacks(reason string)                            {}
