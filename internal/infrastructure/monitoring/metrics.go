package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Marker metrics
	MarkersTracked   prometheus.Gauge
	MarkerEvents     *prometheus.CounterVec
	MarkersDisplayed prometheus.Counter
	InvalidContent   prometheus.Counter

	// Session metrics
	SessionState prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64 `json:"total_requests"`
	TotalErrors       int64 `json:"total_errors"`
	TrackedMarkers    int64 `json:"tracked_markers"`
	Displayed         int64 `json:"displayed"`
	ActiveConnections int64 `json:"active_connections"`
}

// NewMetrics creates a new metrics collector backed by its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markertrack_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "markertrack_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Marker metrics
		MarkersTracked: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "markertrack_markers_tracked",
				Help: "Number of markers currently tracked",
			},
		),
		MarkerEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markertrack_sensor_events_total",
				Help: "Total number of sensor events handled",
			},
			[]string{"kind"},
		),
		MarkersDisplayed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "markertrack_markers_displayed_total",
				Help: "Total number of first appearances sent to the display",
			},
		),
		InvalidContent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "markertrack_invalid_content_total",
				Help: "Total number of added events dropped for empty content",
			},
		),

		// Session metrics
		SessionState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "markertrack_session_state",
				Help: "Current session controller state",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "markertrack_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markertrack_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "markertrack_uptime_seconds",
			Help: "Uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the Prometheus registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordMarkerEvent records a sensor event of the given kind (added, updated, removed)
func (m *Metrics) RecordMarkerEvent(kind string) {
	m.MarkerEvents.WithLabelValues(kind).Inc()
}

// SetMarkersTracked sets the number of tracked markers
func (m *Metrics) SetMarkersTracked(count int) {
	m.MarkersTracked.Set(float64(count))
	m.mu.Lock()
	m.snapshot.TrackedMarkers = int64(count)
	m.mu.Unlock()
}

// IncDisplayed increments the displayed counter
func (m *Metrics) IncDisplayed() {
	m.MarkersDisplayed.Inc()
	m.mu.Lock()
	m.snapshot.Displayed++
	m.mu.Unlock()
}

// IncInvalidContent increments the invalid content counter
func (m *Metrics) IncInvalidContent() {
	m.InvalidContent.Inc()
}

// SetSessionState records the numeric session state
func (m *Metrics) SetSessionState(state int) {
	m.SessionState.Set(float64(state))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns a copy of the current JSON snapshot
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
