// Package telemetry exposes Prometheus instruments for routing and evaluation runs.
// Instruments live on a private registry so tests and parallel runs never share state.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docent"

// Recorder owns the registry and the instruments registered on it. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	routeDecisions  *prometheus.CounterVec
	questions       *prometheus.CounterVec
	questionLatency prometheus.Histogram
	confidence      prometheus.Histogram
	scorerFailures  *prometheus.CounterVec
}

// NewRecorder registers all instruments on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		routeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_decisions_total",
			Help:      "Routing decisions taken after retrieval.",
		}, []string{"decision"}),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Evaluated questions by outcome.",
		}, []string{"outcome"}),
		questionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "question_latency_seconds",
			Help:      "End-to-end latency of answered questions.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_confidence",
			Help:      "Mean rerank score of the kept passages.",
			Buckets:   prometheus.LinearBuckets(-10, 2, 11),
		}),
		scorerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_scorer_failures_total",
			Help:      "Reference-based scoring runs that were skipped.",
		}, []string{"reason"}),
	}
	r.registry.MustRegister(r.routeDecisions, r.questions, r.questionLatency, r.confidence, r.scorerFailures)
	return r
}

// Registry returns the underlying registry, or nil for a nil Recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveRoute(decision string, confidence float64) {
	if r == nil {
		return
	}
	r.routeDecisions.WithLabelValues(decision).Inc()
	r.confidence.Observe(confidence)
}

// ObserveQuestion counts a question as "success" or "failure"; latency is only recorded for successes.
func (r *Recorder) ObserveQuestion(success bool, latency time.Duration) {
	if r == nil {
		return
	}
	if !success {
		r.questions.WithLabelValues("failure").Inc()
		return
	}
	r.questions.WithLabelValues("success").Inc()
	r.questionLatency.Observe(latency.Seconds())
}

func (r *Recorder) ObserveScorerFailure(reason string) {
	if r == nil {
		return
	}
	r.scorerFailures.WithLabelValues(reason).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return fmt.Errorf("telemetry recorder is nil")
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
