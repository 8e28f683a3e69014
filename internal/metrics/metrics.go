// Package metrics records per-run Prometheus metrics.
//
// Each run gets its own registry, so nothing leaks between runs or tests.
// The registry can be written out as a node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one run.
type Metrics struct {
	registry *prometheus.Registry

	WorkersSpawned prometheus.Counter
	WorkerExits    *prometheus.CounterVec
	WorkerResults  *prometheus.CounterVec
	DeadlineFired  prometheus.Counter
	RunDuration    prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		WorkersSpawned: factory.NewCounter(prometheus.CounterOpts{
			Name: "parminmax_workers_spawned_total",
			Help: "Number of worker processes started",
		}),
		WorkerExits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parminmax_worker_exits_total",
				Help: "Worker process exits by final state",
			},
			[]string{"state"},
		),
		WorkerResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parminmax_worker_results_total",
				Help: "Worker results by outcome (received or missing)",
			},
			[]string{"outcome"},
		),
		DeadlineFired: factory.NewCounter(prometheus.CounterOpts{
			Name: "parminmax_deadline_fired_total",
			Help: "Number of runs whose deadline expired",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "parminmax_run_duration_seconds",
			Help:    "Wall-clock time from first spawn to last reap",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveWorkerExit counts one worker exit.
func (m *Metrics) ObserveWorkerExit(state string) {
	m.WorkerExits.WithLabelValues(state).Inc()
}

// ObserveResults counts received and missing worker results.
func (m *Metrics) ObserveResults(received, missing int) {
	m.WorkerResults.WithLabelValues("received").Add(float64(received))
	m.WorkerResults.WithLabelValues("missing").Add(float64(missing))
}

// ObserveRun records the elapsed time of a run.
func (m *Metrics) ObserveRun(elapsed time.Duration) {
	m.RunDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
