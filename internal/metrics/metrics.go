// Package metrics collects poll and delivery counters on a private
// prometheus registry, exposed by the dashboard server at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll result labels.
const (
	ResultOK          = "ok"
	ResultNotModified = "not_modified"
	ResultError       = "error"
)

// Metrics owns the prometheus collectors for one monitor instance.
//
// Using a per-instance registry rather than the global default keeps
// parallel monitors (and tests) from colliding on registration.
type Metrics struct {
	registry *prometheus.Registry

	pollsTotal      *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	sseClients      prometheus.Gauge
}

// New creates a [Metrics] with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedwatch_polls_total",
			Help: "Poll cycles by provider and result.",
		}, []string{"provider", "result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedwatch_events_published_total",
			Help: "Status events published to the bus, by provider and type.",
		}, []string{"provider", "type"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feedwatch_fetch_duration_seconds",
			Help:    "Feed fetch latency by provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		sseClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feedwatch_sse_clients",
			Help: "Currently connected SSE clients.",
		}),
	}

	m.registry.MustRegister(m.pollsTotal, m.eventsPublished, m.fetchDuration, m.sseClients)
	return m
}

// RecordPoll counts one completed poll cycle.
func (m *Metrics) RecordPoll(provider, result string) {
	m.pollsTotal.WithLabelValues(provider, result).Inc()
}

// RecordEvent counts one published status event.
func (m *Metrics) RecordEvent(provider, eventType string) {
	m.eventsPublished.WithLabelValues(provider, eventType).Inc()
}

// ObserveFetch records the latency of one feed fetch.
func (m *Metrics) ObserveFetch(provider string, d time.Duration) {
	m.fetchDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// SSEClientConnected increments the connected-clients gauge.
func (m *Metrics) SSEClientConnected() {
	m.sseClients.Inc()
}

// SSEClientDisconnected decrements the connected-clients gauge.
func (m *Metrics) SSEClientDisconnected() {
	m.sseClients.Dec()
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
