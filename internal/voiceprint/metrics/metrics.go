package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for enrollment and verification.
type Metrics struct {
	Enrollments          prometheus.Counter
	Verifications        *prometheus.CounterVec
	RejectedUploads      *prometheus.CounterVec
	MatchScore           prometheus.Histogram
	ExtractionDurationMs prometheus.Histogram

	// DimensionMismatches is the operational alert signal for configuration
	// drift: it fires when an embedding's length disagrees with the pinned
	// registry dimension, which is never caused by bad caller input.
	DimensionMismatches prometheus.Counter
}

// New registers and returns voiceprint metrics collectors.
func New() *Metrics {
	return &Metrics{
		Enrollments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voxgate_enrollments_total",
			Help: "Total number of successful enrollments",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voxgate_verifications_total",
			Help: "Total number of verification requests by outcome",
		}, []string{"outcome"}),
		RejectedUploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voxgate_rejected_uploads_total",
			Help: "Total number of uploads rejected before embedding, by reason",
		}, []string{"reason"}),
		MatchScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxgate_match_score",
			Help:    "Cosine similarity scores of completed verifications",
			Buckets: []float64{-1, -0.5, 0, 0.25, 0.5, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
		}),
		ExtractionDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxgate_extraction_duration_ms",
			Help:    "Duration of decode plus embedding in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		DimensionMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voxgate_dimension_mismatch_total",
			Help: "Total number of embedding dimension mismatches (configuration drift)",
		}),
	}
}

func (m *Metrics) IncrementEnrollments() {
	m.Enrollments.Inc()
}

func (m *Metrics) IncrementVerifications(outcome string) {
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementRejectedUploads(reason string) {
	m.RejectedUploads.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveMatchScore(score float64) {
	m.MatchScore.Observe(score)
}

func (m *Metrics) ObserveExtractionDuration(durationMs float64) {
	m.ExtractionDurationMs.Observe(durationMs)
}

func (m *Metrics) IncrementDimensionMismatches() {
	m.DimensionMismatches.Inc()
}
