// Package metrics exposes the pipeline's Prometheus collectors.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	QuestionsNormalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_questions_normalized_total",
			Help: "Questions written after normalization, by resulting status",
		},
		[]string{"status"},
	)

	ReviewTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_review_transitions_total",
			Help: "Moderation actions applied to questions",
		},
		[]string{"action", "status"},
	)

	ClassifierRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_classifier_requests_total",
			Help: "Calls to the curation classifier by outcome",
		},
		[]string{"outcome"},
	)

	QuizzesPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_quizzes_published_total",
			Help: "Quizzes moved to published",
		},
	)

	AttemptsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_attempts_submitted_total",
			Help: "Attempts accepted for persistence, by trust policy",
		},
		[]string{"policy"},
	)

	AttemptsPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_attempts_persisted_total",
			Help: "Attempts flushed by the attempt worker, by path (batch, single, dead_letter)",
		},
		[]string{"path"},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call twice.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			QuestionsNormalized,
			ReviewTransitions,
			ClassifierRequests,
			QuizzesPublished,
			AttemptsSubmitted,
			AttemptsPersisted,
		)
	})
}

// Middleware records request counts and latencies per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestCounter.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
