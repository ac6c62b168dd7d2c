package bridge

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bridge.
type Metrics struct {
	registry *prometheus.Registry

	// Call metrics
	CallsActive  prometheus.Gauge
	CallsTotal   *prometheus.CounterVec
	CallDuration prometheus.Histogram

	// Audio metrics
	AudioBytesTotal *prometheus.CounterVec

	// Tool metrics
	ToolExecutionsTotal *prometheus.CounterVec
	ToolDuration        *prometheus.HistogramVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all Prometheus metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "voicecare"
	}

	registry := prometheus.NewRegistry()

	callsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calls_active",
			Help:      "Number of active voice calls",
		},
	)

	callsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total number of voice calls",
		},
		[]string{"status"},
	)

	callDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Voice call duration in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	audioBytesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_total",
			Help:      "Total audio bytes forwarded",
		},
		[]string{"direction"},
	)

	toolExecutionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_executions_total",
			Help:      "Total tool executions by routing tier",
		},
		[]string{"tool", "tier", "status"},
	)

	toolDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool", "tier"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"error_type"},
	)

	// Register all metrics
	registry.MustRegister(
		callsActive,
		callsTotal,
		callDuration,
		audioBytesTotal,
		toolExecutionsTotal,
		toolDuration,
		errorsTotal,
	)

	return &Metrics{
		registry:            registry,
		CallsActive:         callsActive,
		CallsTotal:          callsTotal,
		CallDuration:        callDuration,
		AudioBytesTotal:     audioBytesTotal,
		ToolExecutionsTotal: toolExecutionsTotal,
		ToolDuration:        toolDuration,
		ErrorsTotal:         errorsTotal,
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCallStart records a new call starting.
func (m *Metrics) RecordCallStart() {
	m.CallsActive.Inc()
}

// RecordCallEnd records a call ending.
func (m *Metrics) RecordCallEnd(status string, duration time.Duration) {
	m.CallsActive.Dec()
	m.CallsTotal.WithLabelValues(status).Inc()
	m.CallDuration.Observe(duration.Seconds())
}

// RecordAudio records audio bytes forwarded in one direction.
func (m *Metrics) RecordAudio(direction string, bytes int) {
	m.AudioBytesTotal.WithLabelValues(direction).Add(float64(bytes))
}

// RecordToolExecution records one completed tool execution.
func (m *Metrics) RecordToolExecution(tool, tier, status string, duration time.Duration) {
	m.ToolExecutionsTotal.WithLabelValues(tool, tier, status).Inc()
	m.ToolDuration.WithLabelValues(tool, tier).Observe(duration.Seconds())
}

// RecordError records an error.
func (m *Metrics) RecordError(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// ResponseWriter wraps http.ResponseWriter to capture status code and size.
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode   int
	BytesWritten int
}

// NewResponseWriter creates a new ResponseWriter.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code.
func (rw *ResponseWriter) WriteHeader(code int) {
	rw.StatusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures bytes written.
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.BytesWritten += n
	return n, err
}

// Flush implements http.Flusher.
func (rw *ResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker for WebSocket upgrades.
func (rw *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// StatusString returns the status code as a string.
func (rw *ResponseWriter) StatusString() string {
	return strconv.Itoa(rw.StatusCode)
}
