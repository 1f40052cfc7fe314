package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "users"

// PrometheusRecorder exports metrics through a private registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	usersCreated prometheus.Counter
	usersUpdated prometheus.Counter
	usersDeleted prometheus.Counter

	storeOperations *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
}

// NewPrometheus creates a recorder with its own registry, including the Go
// runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "created_total",
			Help:      "Number of users created.",
		}),
		usersUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updated_total",
			Help:      "Number of users updated.",
		}),
		usersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_total",
			Help:      "Number of users deleted.",
		}),
		storeOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "operations_total",
			Help:      "Document store operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "operation_duration_seconds",
			Help:      "Document store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.usersCreated,
		p.usersUpdated,
		p.usersDeleted,
		p.storeOperations,
		p.storeDuration,
	)

	return p
}

// Gatherer returns the registry backing this recorder.
func (p *PrometheusRecorder) Gatherer() prometheus.Gatherer {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// IncUserCreated increments user created counter.
func (p *PrometheusRecorder) IncUserCreated() { p.usersCreated.Inc() }

// IncUserUpdated increments user updated counter.
func (p *PrometheusRecorder) IncUserUpdated() { p.usersUpdated.Inc() }

// IncUserDeleted increments user deleted counter.
func (p *PrometheusRecorder) IncUserDeleted() { p.usersDeleted.Inc() }

// ObserveStoreOperation counts the operation and records its latency.
func (p *PrometheusRecorder) ObserveStoreOperation(operation, outcome string, duration time.Duration) {
	p.storeOperations.WithLabelValues(operation, outcome).Inc()
	p.storeDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
