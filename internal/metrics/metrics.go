package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Sprout.
type Metrics struct {
	// Journal metrics
	EntriesWritten    *prometheus.CounterVec
	EntriesDeleted    prometheus.Counter
	EntriesImported   *prometheus.CounterVec
	FeedbackGenerated *prometheus.CounterVec
	FeedbackScore     *prometheus.HistogramVec
	SaveConflicts     prometheus.Counter
	SaveRetries       prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics on the default
// registry. Every call returns the same instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			EntriesWritten: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sprout_entries_written_total",
					Help: "Total number of reflection entries written",
				},
				[]string{"lesson_id"},
			),
			EntriesDeleted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "sprout_entries_deleted_total",
					Help: "Total number of reflection entries deleted",
				},
			),
			EntriesImported: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sprout_entries_imported_total",
					Help: "Total number of entries read by imports",
				},
				[]string{"result"},
			),
			FeedbackGenerated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sprout_feedback_generated_total",
					Help: "Total number of feedback records generated",
				},
				[]string{"lesson_id", "source"},
			),
			FeedbackScore: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "sprout_feedback_score",
					Help:    "Distribution of generated feedback scores",
					Buckets: prometheus.LinearBuckets(0, 10, 11), // 0 to 100
				},
				[]string{"dimension"},
			),
			SaveConflicts: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "sprout_save_conflicts_total",
					Help: "Total number of journal saves that lost a version race",
				},
			),
			SaveRetries: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "sprout_save_retries_total",
					Help: "Total number of journal save attempts retried after a conflict",
				},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sprout_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "sprout_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),
		}
	})
	return sharedMetrics
}

// RecordFeedback records one generated feedback record and its scores.
// source is "write", "regenerate" or "import".
func (m *Metrics) RecordFeedback(lessonID, source string, depth, application, selfAwareness int) {
	m.FeedbackGenerated.WithLabelValues(lessonID, source).Inc()
	m.FeedbackScore.WithLabelValues("depth").Observe(float64(depth))
	m.FeedbackScore.WithLabelValues("application").Observe(float64(application))
	m.FeedbackScore.WithLabelValues("self_awareness").Observe(float64(selfAwareness))
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
