// Package metrics exposes Prometheus collectors for the chat service.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatroom"

// Metrics holds the service collectors and the registry they live in
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	heartbeats       *prometheus.CounterVec
	onlineSetSize    *prometheus.GaugeVec
	messagesSent     *prometheus.CounterVec
	messagesMarked   prometheus.Counter
	wsConnections    prometheus.Gauge
	presenceSwept    prometheus.Counter
	storageErrors    *prometheus.CounterVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		heartbeats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_heartbeats_total",
			Help:      "Presence heartbeats recorded by scope.",
		}, []string{"scope"}),
		onlineSetSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_set_size",
			Help:      "Size of the last computed online set by scope.",
		}, []string{"scope"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages stored by kind.",
		}, []string{"kind"}),
		messagesMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_marked_read_total",
			Help:      "Private messages flipped to read.",
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Open websocket presence streams.",
		}),
		presenceSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_rows_swept_total",
			Help:      "Stale room presence rows deleted by the sweeper.",
		}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Requests that failed with a storage error by error code.",
		}, []string{"code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.heartbeats,
		m.onlineSetSize,
		m.messagesSent,
		m.messagesMarked,
		m.wsConnections,
		m.presenceSwept,
		m.storageErrors,
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one request
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncHeartbeat counts a heartbeat for "room" or "global"
func (m *Metrics) IncHeartbeat(scope string) {
	if m == nil {
		return
	}
	m.heartbeats.WithLabelValues(scope).Inc()
}

// SetOnlineSetSize records the size of a computed online set
func (m *Metrics) SetOnlineSetSize(scope string, n int) {
	if m == nil {
		return
	}
	m.onlineSetSize.WithLabelValues(scope).Set(float64(n))
}

// IncMessagesSent counts a stored message of the given kind
func (m *Metrics) IncMessagesSent(kind string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(kind).Inc()
}

// AddMarkedRead counts messages flipped to read
func (m *Metrics) AddMarkedRead(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.messagesMarked.Add(float64(n))
}

// WebsocketOpened tracks a new stream
func (m *Metrics) WebsocketOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

// WebsocketClosed tracks a closed stream
func (m *Metrics) WebsocketClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}

// AddSwept counts rows removed by the sweeper
func (m *Metrics) AddSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.presenceSwept.Add(float64(n))
}

// IncStorageError counts a storage failure surfaced to a caller
func (m *Metrics) IncStorageError(code string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(code).Inc()
}
