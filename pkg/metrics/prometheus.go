package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	resolutions      *prometheus.CounterVec
	resolvedFeatures *prometheus.GaugeVec
	validationIssues *prometheus.CounterVec
	featuresComputed *prometheus.CounterVec
	mismatches       *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		resolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratforge_resolutions_total",
				Help: "Total number of strategy feature resolutions",
			},
			[]string{"strategy"},
		),
		resolvedFeatures: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stratforge_resolved_features",
				Help: "Feature count produced by the last resolution of a strategy",
			},
			[]string{"strategy"},
		),
		validationIssues: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratforge_validation_issues_total",
				Help: "Total validation findings by severity",
			},
			[]string{"strategy", "severity"},
		),
		featuresComputed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratforge_feature_columns_total",
				Help: "Total feature columns computed",
			},
			[]string{"strategy"},
		),
		mismatches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratforge_feature_set_mismatches_total",
				Help: "Total fatal feature set mismatches against a manifest",
			},
			[]string{"strategy"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratforge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stratforge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordResolution records one resolver pass and its feature count.
func (r *Recorder) RecordResolution(strategy string, features int) {
	r.resolutions.WithLabelValues(strategy).Inc()
	r.resolvedFeatures.WithLabelValues(strategy).Set(float64(features))
}

// RecordValidationIssues records a validation run's findings.
func (r *Recorder) RecordValidationIssues(strategy string, errors, warnings int) {
	if errors > 0 {
		r.validationIssues.WithLabelValues(strategy, "error").Add(float64(errors))
	}
	if warnings > 0 {
		r.validationIssues.WithLabelValues(strategy, "warning").Add(float64(warnings))
	}
}

// RecordFeaturesComputed records computed feature columns.
func (r *Recorder) RecordFeaturesComputed(strategy string, columns int) {
	r.featuresComputed.WithLabelValues(strategy).Add(float64(columns))
}

// RecordMismatch records a fatal manifest mismatch.
func (r *Recorder) RecordMismatch(strategy string) {
	r.mismatches.WithLabelValues(strategy).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
