// Package metrics provides Prometheus metrics for the product classification service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// confidenceBuckets covers the (0.5, 1] range the decision policy produces.
var confidenceBuckets = []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Classification
	classifications          *prometheus.CounterVec
	classificationConfidence prometheus.Histogram
	classificationLatency    prometheus.Histogram
	classificationErrors     *prometheus.CounterVec
	modelLoaded              prometheus.Gauge

	// Routing / storage partitions
	partitionInserts       *prometheus.CounterVec
	partitionInsertLatency *prometheus.HistogramVec
	partitionUp            *prometheus.GaugeVec
	breakerState           *prometheus.GaugeVec

	// Bulk import
	batchItems *prometheus.CounterVec
	batchSize  prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "produits",
		subsystem:        "classifier",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix != "" {
		return m.metricPrefix + "_" + n
	}
	return n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.classifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("classifications_total"),
		Help: "Total number of products classified, by final label",
	}, []string{"label"})

	m.classificationConfidence = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("classification_confidence"),
		Help:    "Distribution of renormalized Homme/Femme confidence",
		Buckets: confidenceBuckets,
	})

	m.classificationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("classification_latency_milliseconds"),
		Help:    "Encode + predict + decide latency in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.classificationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("classification_errors_total"),
		Help: "Classification failures by error kind",
	}, []string{"kind"})

	m.modelLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("model_loaded"),
		Help: "1 when the artifact bundle is loaded",
	})

	m.partitionInserts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("partition_inserts_total"),
		Help: "Inserts per storage partition and outcome",
	}, []string{"partition", "status"})

	m.partitionInsertLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("partition_insert_latency_milliseconds"),
		Help:    "Insert latency per storage partition in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"partition"})

	m.partitionUp = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("partition_up"),
		Help: "1 when the last health probe reached the partition",
	}, []string{"partition"})

	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("partition_breaker_state"),
		Help: "Circuit breaker state per partition (0=closed, 1=half-open, 2=open)",
	}, []string{"partition"})

	m.batchItems = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("batch_items_total"),
		Help: "Bulk import items by outcome (homme, femme, failed)",
	}, []string{"outcome"})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("batch_size"),
		Help:    "Number of items per bulk import request",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("http_requests_total"),
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_type_total"),
		Help: "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_endpoint_total"),
		Help: "Errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: constLabels,
		Name: m.name("memory_usage_bytes"),
		Help: "Current heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: constLabels,
		Name: m.name("goroutines"),
		Help: "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: constLabels,
		Name:    m.name("gc_pause_milliseconds"),
		Help:    "Average GC pause time in milliseconds",
		Buckets: m.histogramBuckets,
	})
}

// Classification Metrics Functions.

// RecordClassification records one successful classification.
func RecordClassification(label string, confidence, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.classifications.WithLabelValues(label).Inc()
	globalManager.classificationConfidence.Observe(confidence)
	globalManager.classificationLatency.Observe(latencyMs)
}

// RecordClassificationError increments the classification error counter for kind.
func RecordClassificationError(kind string) {
	globalManager.classificationErrors.WithLabelValues(kind).Inc()
}

// SetModelLoaded flips the model-loaded gauge.
func SetModelLoaded(loaded bool) {
	if loaded {
		globalManager.modelLoaded.Set(1)
		return
	}
	globalManager.modelLoaded.Set(0)
}

// Partition Metrics Functions.

// RecordPartitionInsert records one insert attempt against a partition.
func RecordPartitionInsert(partition string, ok bool, latencyMs float64) {
	status := "ok"
	if !ok {
		status = "error"
	}
	globalManager.partitionInserts.WithLabelValues(partition, status).Inc()
	globalManager.partitionInsertLatency.WithLabelValues(partition).Observe(latencyMs)
}

// SetPartitionUp records the result of the last health probe for a partition.
func SetPartitionUp(partition string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	globalManager.partitionUp.WithLabelValues(partition).Set(v)
}

// SetBreakerState records a circuit breaker transition (0 closed, 1 half-open, 2 open).
func SetBreakerState(partition string, state float64) {
	globalManager.breakerState.WithLabelValues(partition).Set(state)
}

// Batch Metrics Functions.

// RecordBatch records the outcome of one bulk import.
func RecordBatch(total, homme, femme, failed int) {
	globalManager.batchSize.Observe(float64(total))
	globalManager.batchItems.WithLabelValues("homme").Add(float64(homme))
	globalManager.batchItems.WithLabelValues("femme").Add(float64(femme))
	globalManager.batchItems.WithLabelValues("failed").Add(float64(failed))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
