// Package metrics exposes the Prometheus collectors recorded by the engine
// and the HTTP layer. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Training kinds and outcomes used as label values.
const (
	KindLearner = "learner"
	KindDataset = "dataset"

	OutcomeTrained      = "trained"
	OutcomeInsufficient = "insufficient_data"
	OutcomeFailed       = "failed"
)

// Metrics holds every collector. Collectors are registered on the
// Registerer given to New, so tests can use a private registry.
type Metrics struct {
	predictions     *prometheus.CounterVec
	trainingRuns    *prometheus.CounterVec
	grades          *prometheus.CounterVec
	quizScore       prometheus.Histogram
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adaptiq_predictions_total",
				Help: "Predictions served, by source (trained or default).",
			},
			[]string{"source"},
		),
		trainingRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adaptiq_training_runs_total",
				Help: "Training runs, by model kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		grades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adaptiq_quiz_grades_total",
				Help: "Graded quizzes, by whether the attempt was persisted.",
			},
			[]string{"persisted"},
		),
		quizScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "adaptiq_quiz_score",
				Help:    "Distribution of graded quiz scores.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adaptiq_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adaptiq_http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.predictions,
		m.trainingRuns,
		m.grades,
		m.quizScore,
		m.requests,
		m.requestDuration,
	)
	return m
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// PredictionServed counts one prediction response.
func (m *Metrics) PredictionServed(source string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(source).Inc()
}

// TrainingRun counts one training attempt.
func (m *Metrics) TrainingRun(kind, outcome string) {
	if m == nil {
		return
	}
	m.trainingRuns.WithLabelValues(kind, outcome).Inc()
}

// QuizGraded records a graded quiz and its score.
func (m *Metrics) QuizGraded(score float64, persisted bool) {
	if m == nil {
		return
	}
	m.grades.WithLabelValues(strconv.FormatBool(persisted)).Inc()
	m.quizScore.Observe(score)
}

// RequestServed records one HTTP request.
func (m *Metrics) RequestServed(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
