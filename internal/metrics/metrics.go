// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GenerationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyguide_generation_requests_total",
		Help: "Generation calls to the Gemini API by task and outcome.",
	}, []string{"task", "outcome"})

	GenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studyguide_generation_duration_seconds",
		Help:    "Latency of Gemini generation calls.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"task"})

	QuizDecodeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studyguide_quiz_decode_failures_total",
		Help: "Model quiz responses that could not be decoded.",
	})

	QuizGrades = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studyguide_quiz_grades_total",
		Help: "Quiz submissions graded.",
	})

	PipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyguide_pipeline_runs_total",
		Help: "Guide+quiz pipeline runs by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(GenerationRequests, GenerationDuration, QuizDecodeFailures, QuizGrades, PipelineRuns)
}

// ObserveGeneration records one generation call.
func ObserveGeneration(task, outcome string, started time.Time) {
	GenerationRequests.WithLabelValues(task, outcome).Inc()
	GenerationDuration.WithLabelValues(task).Observe(time.Since(started).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
