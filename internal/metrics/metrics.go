// Package metrics exposes Prometheus instruments for the pipeline and the
// HTTP API. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rag"

// Metrics holds the registered collectors.
type Metrics struct {
	indexRequests    *prometheus.CounterVec
	fragmentsIndexed prometheus.Counter
	chatRequests     *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	registry         *prometheus.Registry
}

// New creates a Metrics with its own registry, including Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.indexRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_requests_total",
			Help:      "Indexing runs by source type and outcome",
		},
		[]string{"type", "status"},
	)
	m.fragmentsIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_indexed_total",
			Help:      "Fragments appended to the vector index",
		},
	)
	m.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome",
		},
		[]string{"status"},
	)
	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.registry.MustRegister(
		m.indexRequests,
		m.fragmentsIndexed,
		m.chatRequests,
		m.stageDuration,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// IndexDone records one indexing run.
func (m *Metrics) IndexDone(sourceType string, fragments int, err error) {
	if m == nil {
		return
	}
	m.indexRequests.WithLabelValues(sourceType, outcome(err)).Inc()
	if err == nil {
		m.fragmentsIndexed.Add(float64(fragments))
	}
}

// ChatDone records one chat request.
func (m *Metrics) ChatDone(err error) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(outcome(err)).Inc()
}

// ObserveStage records how long a pipeline stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}
