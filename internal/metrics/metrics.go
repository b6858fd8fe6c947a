// Package metrics exposes Prometheus collectors for the HTTP surface, the
// analytics engines and ingestion.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "logstack"

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	analyticsDuration *prometheus.HistogramVec
	ingestedRecords   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		analyticsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "operation_duration_seconds",
			Help:      "Analytics operation latency by operation and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		ingestedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_total",
			Help:      "Ingested error records by source.",
		}, []string{"source"}),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.analyticsDuration, m.ingestedRecords)
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// ObserveAnalytics records one analytics operation.
func (m *Metrics) ObserveAnalytics(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.analyticsDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

// AddIngested counts records persisted from source ("file" or "event").
func (m *Metrics) AddIngested(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ingestedRecords.WithLabelValues(source).Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
