// Package metrics provides Prometheus metrics for the tabsum normalization service.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Normalization
	jobsSubmitted    prometheus.Counter
	jobsDuplicate    prometheus.Counter
	jobsSucceeded    prometheus.Counter
	jobsFailed       prometheus.Counter
	normalizeLatency prometheus.Histogram
	eventsParsed     *prometheus.CounterVec
	resultsEmitted   *prometheus.CounterVec
	entriesSkipped   *prometheus.CounterVec
	prelimsRemoved   prometheus.Counter

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Repository
	repositoryRunsTotal    prometheus.Gauge
	repositoryWriteLatency prometheus.Histogram
	repositoryQueryLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

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
		namespace:        "tabsum",
		subsystem:        "normalizer",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval reports how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// SetRefreshInterval changes the updater pace. Non-positive values are
// ignored. Call it before the updaters start.
func (m *Manager) SetRefreshInterval(d time.Duration) {
	WithRefreshInterval(d)(m)
}

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

func sanitize(s string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(s)
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return sanitize(m.metricPrefix) + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   sanitize(m.namespace),
		Subsystem:   sanitize(m.subsystem),
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts(m.counterOpts(name, help))
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   sanitize(m.namespace),
		Subsystem:   sanitize(m.subsystem),
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.jobsSubmitted = auto.NewCounter(m.counterOpts("jobs_submitted_total", "Total number of normalization jobs accepted"))
	m.jobsDuplicate = auto.NewCounter(m.counterOpts("jobs_duplicate_total", "Total number of resubmitted tournament payloads"))
	m.jobsSucceeded = auto.NewCounter(m.counterOpts("jobs_succeeded_total", "Total number of jobs normalized successfully"))
	m.jobsFailed = auto.NewCounter(m.counterOpts("jobs_failed_total", "Total number of jobs that ended in error"))
	m.normalizeLatency = auto.NewHistogram(m.histogramOpts("normalize_latency_milliseconds", "Engine latency per tournament in milliseconds", nil))
	m.eventsParsed = auto.NewCounterVec(m.counterOpts("events_parsed_total", "Events parsed by publishing style"), []string{"style"})
	m.resultsEmitted = auto.NewCounterVec(m.counterOpts("results_emitted_total", "Result records emitted by result set"), []string{"result_set"})
	m.entriesSkipped = auto.NewCounterVec(m.counterOpts("entries_skipped_total", "Entries skipped during parsing"), []string{"reason"})
	m.prelimsRemoved = auto.NewCounter(m.counterOpts("prelim_duplicates_removed_total", "Prelim Seeds rows superseded by Final Places"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued jobs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of rejected enqueues"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", nil))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of running workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Worker latency per job in milliseconds", nil))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))

	m.repositoryRunsTotal = auto.NewGauge(m.gaugeOpts("repository_runs_total", "Number of runs held by the repository"))
	m.repositoryWriteLatency = auto.NewHistogram(m.histogramOpts("repository_write_latency_milliseconds", "Repository write latency in milliseconds", nil))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogramOpts("repository_query_latency_milliseconds", "Repository query latency in milliseconds", nil))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

func on() bool { return globalManager.enabled }

// RecordJobSubmitted increments the accepted jobs counter.
func RecordJobSubmitted() {
	if on() {
		globalManager.jobsSubmitted.Inc()
	}
}

// RecordJobDuplicate increments the duplicate submissions counter.
func RecordJobDuplicate() {
	if on() {
		globalManager.jobsDuplicate.Inc()
	}
}

// RecordJobSucceeded increments the succeeded jobs counter.
func RecordJobSucceeded() {
	if on() {
		globalManager.jobsSucceeded.Inc()
	}
}

// RecordJobFailed increments the failed jobs counter.
func RecordJobFailed() {
	if on() {
		globalManager.jobsFailed.Inc()
	}
}

// RecordNormalizeLatency records engine latency in milliseconds.
func RecordNormalizeLatency(latencyMs float64) {
	if on() {
		globalManager.normalizeLatency.Observe(latencyMs)
	}
}

// RecordEventsParsed adds n parsed events for the given style.
func RecordEventsParsed(style string, n int) {
	if on() && n > 0 {
		globalManager.eventsParsed.WithLabelValues(style).Add(float64(n))
	}
}

// RecordResultsEmitted adds n emitted results for the given result set.
func RecordResultsEmitted(resultSet string, n int) {
	if on() && n > 0 {
		globalManager.resultsEmitted.WithLabelValues(resultSet).Add(float64(n))
	}
}

// RecordEntriesSkipped adds n skipped entries for the given reason.
func RecordEntriesSkipped(reason string, n int) {
	if on() && n > 0 {
		globalManager.entriesSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordPrelimsRemoved adds n removed Prelim Seeds duplicates.
func RecordPrelimsRemoved(n int) {
	if on() && n > 0 {
		globalManager.prelimsRemoved.Add(float64(n))
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if on() {
		globalManager.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueueRate.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if on() {
		globalManager.queueDequeueRate.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if on() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	if on() {
		globalManager.queueProcessingLatency.Observe(latencyMs)
	}
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	if on() {
		globalManager.workerActiveCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if on() {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if on() {
		globalManager.workerErrorRate.Inc()
	}
}

// UpdateRepositoryRunsTotal sets the number of stored runs.
func UpdateRepositoryRunsTotal(count int) {
	if on() {
		globalManager.repositoryRunsTotal.Set(float64(count))
	}
}

// RecordRepositoryWriteLatency records repository write latency.
func RecordRepositoryWriteLatency(latencyMs float64) {
	if on() {
		globalManager.repositoryWriteLatency.Observe(latencyMs)
	}
}

// RecordRepositoryQueryLatency records repository query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	if on() {
		globalManager.repositoryQueryLatency.Observe(latencyMs)
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Default returns the global manager.
func Default() *Manager {
	return globalManager
}
