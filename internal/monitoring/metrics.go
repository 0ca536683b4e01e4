package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// Import pipeline metrics
	HandsImported  prometheus.Counter
	HandsSkipped   prometheus.Counter
	ImportDuration prometheus.Histogram
	ImportErrors   prometheus.Counter

	// Statistics metrics
	StatsRecomputes prometheus.Counter

	// Coaching metrics
	AnalysisCalls *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for the JSON health endpoint.
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveConnections int64   `json:"active_connections"`
	HandsImported     int64   `json:"hands_imported"`
	AvgRequestSeconds float64 `json:"avg_request_seconds"`

	totalDuration float64
}

// New creates a metrics collector and starts the uptime updater.
func New() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pokerlens_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pokerlens_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pokerlens_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pokerlens_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		HandsImported: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pokerlens_hands_imported_total",
				Help: "Total number of hands imported",
			},
		),
		HandsSkipped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pokerlens_hands_skipped_total",
				Help: "Total number of malformed hand records skipped",
			},
		),
		ImportDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pokerlens_import_duration_seconds",
				Help:    "Hand-history file import duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60},
			},
		),
		ImportErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pokerlens_import_errors_total",
				Help: "Total number of failed file imports",
			},
		),

		StatsRecomputes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pokerlens_stats_recomputes_total",
				Help: "Total number of statistics recomputations",
			},
		),

		AnalysisCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pokerlens_analysis_calls_total",
				Help: "Total number of coaching API calls",
			},
			[]string{"status"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pokerlens_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message by direction and type.
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// RecordImport records a completed file import.
func (m *Metrics) RecordImport(imported, skipped int, duration time.Duration) {
	m.HandsImported.Add(float64(imported))
	m.HandsSkipped.Add(float64(skipped))
	m.ImportDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.HandsImported += int64(imported)
	m.mu.Unlock()
}

// RecordImportError records a failed file import.
func (m *Metrics) RecordImportError() {
	m.ImportErrors.Inc()
}

// RecordAnalysisCall records a coaching API call outcome.
func (m *Metrics) RecordAnalysisCall(status string) {
	m.AnalysisCalls.WithLabelValues(status).Inc()
}

// RecordStatsRecompute records a statistics recomputation.
func (m *Metrics) RecordStatsRecompute() {
	m.StatsRecomputes.Inc()
}

// IncWSConnections increments the WebSocket connection gauge.
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()

	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements the WebSocket connection gauge.
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()

	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// GetSnapshot returns current values for the JSON health endpoint.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	if snap.TotalRequests > 0 {
		snap.AvgRequestSeconds = snap.totalDuration / float64(snap.TotalRequests)
	}
	return snap
}
