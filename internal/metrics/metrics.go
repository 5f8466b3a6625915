// Package metrics records storage operation outcomes of one run on a private
// Prometheus registry and can dump them in the node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects operation counters and durations for one run.
type Recorder struct {
	// registry holds only this recorder's collectors.
	registry *prometheus.Registry
	// operations counts operations by kind and outcome.
	operations *prometheus.CounterVec
	// durations observes operation latency by kind.
	durations *prometheus.HistogramVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "release_publisher_storage_operations_total",
				Help: "Storage operations performed by release-publisher, by outcome",
			},
			[]string{"operation", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "release_publisher_storage_operation_duration_seconds",
				Help:    "Duration of storage operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
	}

	r.registry.MustRegister(r.operations, r.durations)

	return r
}

// Observe records one finished operation. A nil recorder ignores the call.
func (r *Recorder) Observe(operation, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}

	r.operations.WithLabelValues(operation, outcome).Inc()
	r.durations.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Operations exposes the operation counter.
func (r *Recorder) Operations() *prometheus.CounterVec {
	return r.operations
}

// WriteTextfile writes the current values to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
