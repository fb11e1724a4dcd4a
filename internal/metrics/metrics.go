// Package metrics provides Prometheus metrics for the prediction pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"review-sentiment/internal/models"
)

type Metrics struct {
	// RequestsTotal counts pipeline runs by outcome ("ok" or an error kind).
	RequestsTotal *prometheus.CounterVec
	// ReviewsTotal counts classified reviews by sentiment label.
	ReviewsTotal *prometheus.CounterVec
	// PipelineDuration measures fetch-to-aggregate time of successful runs.
	PipelineDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reviewsent",
				Name:      "requests_total",
				Help:      "Total number of prediction runs by outcome",
			},
			[]string{"kind"},
		),
		ReviewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reviewsent",
				Name:      "reviews_total",
				Help:      "Total number of classified reviews by sentiment",
			},
			[]string{"sentiment"},
		),
		PipelineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "reviewsent",
				Name:      "pipeline_duration_seconds",
				Help:      "Duration of successful prediction runs in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.ReviewsTotal, m.PipelineDuration)
	return m
}

// RecordSuccess records a completed run and its per-review labels.
func (m *Metrics) RecordSuccess(res models.PredictResult) {
	m.RequestsTotal.WithLabelValues("ok").Inc()
	m.PipelineDuration.Observe(res.ProcessingTime)
	for _, r := range res.Reviews {
		m.ReviewsTotal.WithLabelValues(string(r.Sentiment)).Inc()
	}
}

// RecordFailure records a run that ended with the given error kind.
func (m *Metrics) RecordFailure(kind string) {
	m.RequestsTotal.WithLabelValues(kind).Inc()
}
