// Package metrics exposes Prometheus counters and histograms for coverage,
// contact, eclipse and propagation runs, and writes them out as a
// node-exporter textfile for batch runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcov_evaluations_total",
			Help: "Total number of completed evaluations by kind.",
		},
		[]string{"kind"},
	)

	evaluationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitcov_evaluation_duration_seconds",
			Help:    "Evaluation wall time in seconds by kind.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	accessRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcov_access_records_total",
			Help: "Total number of access records written by coverage type.",
		},
		[]string{"coverage_type"},
	)

	intervalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcov_intervals_total",
			Help: "Total number of contact or eclipse intervals found.",
		},
		[]string{"kind"},
	)

	propagatedStatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcov_propagated_states_total",
			Help: "Total number of state samples produced by propagator.",
		},
		[]string{"propagator"},
	)

	propagationErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitcov_propagation_errors_total",
			Help: "Total number of spacecraft that failed to propagate.",
		},
	)
)

func init() {
	prometheus.MustRegister(evaluationsTotal)
	prometheus.MustRegister(evaluationDurationSeconds)
	prometheus.MustRegister(accessRecordsTotal)
	prometheus.MustRegister(intervalsTotal)
	prometheus.MustRegister(propagatedStatesTotal)
	prometheus.MustRegister(propagationErrorsTotal)
}

// RecordCoverage records one completed coverage evaluation.
func RecordCoverage(coverageType string, duration time.Duration, records int) {
	evaluationsTotal.WithLabelValues("coverage").Inc()
	evaluationDurationSeconds.WithLabelValues("coverage").Observe(duration.Seconds())
	accessRecordsTotal.WithLabelValues(coverageType).Add(float64(records))
}

// RecordPair records one completed contact or eclipse evaluation. kind is
// "contact" or "eclipse".
func RecordPair(kind string, duration time.Duration, intervals int) {
	evaluationsTotal.WithLabelValues(kind).Inc()
	evaluationDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
	intervalsTotal.WithLabelValues(kind).Add(float64(intervals))
}

// RecordPropagation records the outcome of propagating one spacecraft.
func RecordPropagation(propagator string, duration time.Duration, states int, err error) {
	if err != nil {
		propagationErrorsTotal.Inc()
		return
	}
	evaluationsTotal.WithLabelValues("propagation").Inc()
	evaluationDurationSeconds.WithLabelValues("propagation").Observe(duration.Seconds())
	propagatedStatesTotal.WithLabelValues(propagator).Add(float64(states))
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
