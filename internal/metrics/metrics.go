// Package metrics defines the queue's metrics sink contract and a
// Prometheus-backed implementation. The engine only ever writes into the
// Sink interface; Prometheus registration and HTTP exposition are ambient
// plumbing wrapped around it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sink is the set of observations the engine makes. Names and labels
// mirror the component design exactly:
//   - histogram job_queue_lag_seconds
//   - histogram job_execution_duration_seconds
//   - counter   job_execution_result{status=success|failure}
//   - gauge     job_queue_depth
type Sink interface {
	ObserveQueueLagSeconds(seconds float64)
	ObserveExecutionDurationSeconds(seconds float64)
	IncExecutionResult(status string)
	SetQueueDepth(n float64)
}

// PromSink is the production Sink, backed by client_golang collectors
// registered on a private registry so multiple worker/monitor instances
// in one process (or one test binary) never collide on the global
// default registerer.
type PromSink struct {
	queueLag          prometheus.Histogram
	executionDuration prometheus.Histogram
	executionResult   *prometheus.CounterVec
	queueDepth        prometheus.Gauge

	registry *prometheus.Registry
}

// NewPromSink builds and registers the queue's collectors on a fresh registry.
func NewPromSink() *PromSink {
	reg := prometheus.NewRegistry()

	s := &PromSink{
		registry: reg,
		queueLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "job_queue_lag_seconds",
			Help:    "Seconds from a job's eligibility to a worker claiming it.",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 300},
		}),
		executionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "job_execution_duration_seconds",
			Help:    "Duration of one worker claim-execute-settle iteration.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		executionResult: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_execution_result",
			Help: "Total job executions settled, by outcome.",
		}, []string{"status"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "job_queue_depth",
			Help: "Number of Pending jobs currently eligible to run.",
		}),
	}

	reg.MustRegister(s.queueLag, s.executionDuration, s.executionResult, s.queueDepth)
	return s
}

func (s *PromSink) ObserveQueueLagSeconds(seconds float64) { s.queueLag.Observe(seconds) }

func (s *PromSink) ObserveExecutionDurationSeconds(seconds float64) {
	s.executionDuration.Observe(seconds)
}

func (s *PromSink) IncExecutionResult(status string) { s.executionResult.WithLabelValues(status).Inc() }

func (s *PromSink) SetQueueDepth(n float64) { s.queueDepth.Set(n) }

// Handler exposes the registry in Prometheus text format. No process in
// this repository mounts it: cmd/worker has no HTTP listener, and
// cmd/server's GET /metrics serves the server's own registry.
func (s *PromSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Noop is a Sink that discards every observation — used in tests that
// only care about the engine's control flow, not its telemetry.
type Noop struct{}

func (Noop) ObserveQueueLagSeconds(float64)          {}
func (Noop) ObserveExecutionDurationSeconds(float64) {}
func (Noop) IncExecutionResult(string)               {}
func (Noop) SetQueueDepth(float64)                   {}
