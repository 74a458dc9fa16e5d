// Package metrics provides Prometheus metrics for the patientor service.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Business metrics
	patientsCreated    prometheus.Counter
	entriesCreated     *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	patientsTotal      prometheus.Gauge
	diagnosesTotal     prometheus.Gauge
	counterReads       *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository
	repositoryLatency *prometheus.HistogramVec
	repositoryErrors  *prometheus.CounterVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
	lastNumGC            uint32
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "patientor",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.patientsCreated = auto.NewCounter(m.counterOpts(
		"patients_created_total", "Total number of patients added"))
	m.entriesCreated = auto.NewCounterVec(m.counterOpts(
		"entries_created_total", "Total number of entries added by entry type"),
		[]string{"type"})
	m.validationFailures = auto.NewCounterVec(m.counterOpts(
		"validation_failures_total", "Rejected payloads by payload kind and offending field"),
		[]string{"kind", "field"})
	m.patientsTotal = auto.NewGauge(m.gaugeOpts(
		"patients", "Number of stored patients"))
	m.diagnosesTotal = auto.NewGauge(m.gaugeOpts(
		"diagnoses", "Number of diagnoses in the catalog"))
	m.counterReads = auto.NewCounterVec(m.counterOpts(
		"counter_reads_total", "Key-value counter reads by result (hit, miss, error)"),
		[]string{"result"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.repositoryLatency = auto.NewHistogramVec(m.histogramOpts(
		"repository_operation_latency_milliseconds", "Repository operation latency in milliseconds", m.histogramBuckets),
		[]string{"store", "operation"})
	m.repositoryErrors = auto.NewCounterVec(m.counterOpts(
		"repository_errors_total", "Repository operations that failed"),
		[]string{"store", "operation"})

	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts(
		"error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordPatientCreated increments the patients created counter.
func RecordPatientCreated() {
	globalManager.patientsCreated.Inc()
}

// RecordEntryCreated increments the entries created counter for entryType.
func RecordEntryCreated(entryType string) {
	globalManager.entriesCreated.WithLabelValues(entryType).Inc()
}

// RecordValidationFailure counts a rejected payload. kind is "patient" or
// "entry"; field is the first offending field.
func RecordValidationFailure(kind, field string) {
	globalManager.validationFailures.WithLabelValues(kind, field).Inc()
}

// UpdatePatientsTotal sets the stored patient count.
func UpdatePatientsTotal(count int) {
	globalManager.patientsTotal.Set(float64(count))
}

// UpdateDiagnosesTotal sets the catalog size.
func UpdateDiagnosesTotal(count int) {
	globalManager.diagnosesTotal.Set(float64(count))
}

// RecordCounterRead counts a key-value counter read by result.
func RecordCounterRead(result string) {
	globalManager.counterReads.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRepositoryOperation records the latency of a repository call.
func RecordRepositoryOperation(store, op string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(store, op).Observe(latencyMs)
}

// RecordRepositoryError counts a failed repository call.
func RecordRepositoryError(store, op string) {
	globalManager.repositoryErrors.WithLabelValues(store, op).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMetrics samples the Go runtime and refreshes the system gauges.
// GC pauses that happened since the previous call are observed once each.
func UpdateSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	globalManager.systemMemoryUsage.Set(float64(ms.HeapAlloc))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))

	last := globalManager.lastNumGC
	if ms.NumGC-last > uint32(len(ms.PauseNs)) {
		last = ms.NumGC - uint32(len(ms.PauseNs))
	}
	for n := last + 1; n <= ms.NumGC; n++ {
		pause := ms.PauseNs[(n+uint32(len(ms.PauseNs))-1)%uint32(len(ms.PauseNs))]
		globalManager.systemGCPauseTime.Observe(float64(pause) / 1e6)
	}
	globalManager.lastNumGC = ms.NumGC
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
