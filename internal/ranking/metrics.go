package ranking

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricEstimatesTotal   = "experience_estimates_total"
	MetricFeedbackTotal    = "experience_feedback_total"
	MetricErrorsTotal      = "experience_errors_total"
	MetricRecomputeSeconds = "experience_rank_recompute_duration_seconds"
	MetricExperiences      = "experience_count"
)

// Metrics contains Prometheus metrics for the ranking engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	estimates   *prometheus.CounterVec
	feedback    *prometheus.CounterVec
	errors      *prometheus.CounterVec
	recompute   prometheus.Histogram
	experiences prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		estimates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEstimatesTotal,
				Help: "Total number of scored experiences by score source",
			},
			[]string{"source"},
		),
		feedback: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFeedbackTotal,
				Help: "Total number of applied comparisons by score adjustment",
			},
			[]string{"adjustment"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricErrorsTotal,
				Help: "Total number of failed operations by operation and error kind",
			},
			[]string{"op", "kind"},
		),
		recompute: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricRecomputeSeconds,
				Help:    "Histogram of full rank recompute duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
		),
		experiences: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricExperiences,
				Help: "Number of ranked experiences after the last recompute",
			},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.estimates,
		m.feedback,
		m.errors,
		m.recompute,
		m.experiences,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) incEstimate(source Source) {
	if m == nil {
		return
	}
	m.estimates.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) incFeedback(adjustment float64) {
	if m == nil {
		return
	}
	m.feedback.WithLabelValues(strconv.FormatFloat(adjustment, 'f', -1, 64)).Inc()
}

func (m *Metrics) incError(op string, err error) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(op, errorKind(err)).Inc()
}

func (m *Metrics) observeRecompute(start time.Time, total int) {
	if m == nil {
		return
	}
	m.recompute.Observe(time.Since(start).Seconds())
	m.experiences.Set(float64(total))
}
