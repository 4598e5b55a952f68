// Package metrics provides Prometheus metrics for the grade
// reconstruction tool.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tool.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// API client metrics
	apiRequests        prometheus.Counter
	apiRequestErrors   prometheus.Counter
	apiRetries         prometheus.Counter
	apiRequestDuration prometheus.Histogram
	apiResponseBytes   prometheus.Counter

	// Scan metrics
	scansCompleted prometheus.Counter
	scansFailed    prometheus.Counter

	// Queue and worker metrics
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "regrade",
		subsystem:        "batch",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.apiRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_requests_total",
		Help:      "Total number of successful platform API requests",
	})

	m.apiRequestErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_request_errors_total",
		Help:      "Total number of failed platform API requests",
	})

	m.apiRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_retries_total",
		Help:      "Total number of retries on the transient gateway status",
	})

	m.apiRequestDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_request_duration_milliseconds",
		Help:      "Histogram of platform API request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.apiResponseBytes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_response_bytes_total",
		Help:      "Total bytes received from the platform API",
	})

	m.scansCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scans_completed_total",
		Help:      "Total number of students whose logs were scanned successfully",
	})

	m.scansFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scans_failed_total",
		Help:      "Total number of students skipped after a scan failure",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the task queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum task queue capacity",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of active workers (processing capacity)",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Per-student processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// RecordAPIRequest increments the successful request counter.
func RecordAPIRequest() {
	globalManager.apiRequests.Inc()
}

// RecordAPIRequestError increments the failed request counter.
func RecordAPIRequestError() {
	globalManager.apiRequestErrors.Inc()
}

// RecordAPIRetry increments the retry counter.
func RecordAPIRetry() {
	globalManager.apiRetries.Inc()
}

// RecordAPIRequestDuration records one request's duration in milliseconds.
func RecordAPIRequestDuration(latencyMs float64) {
	globalManager.apiRequestDuration.Observe(latencyMs)
}

// RecordAPIResponseBytes adds a response's size to the byte counter.
func RecordAPIResponseBytes(n int) {
	globalManager.apiResponseBytes.Add(float64(n))
}

// RecordScanCompleted increments the completed scan counter.
func RecordScanCompleted() {
	globalManager.scansCompleted.Inc()
}

// RecordScanFailed increments the failed scan counter.
func RecordScanFailed() {
	globalManager.scansFailed.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
