// Package metrics provides Prometheus metrics for the Dawg Bowl draft service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the draft service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Draft lifecycle
	draftsCreated     prometheus.Counter
	draftsActive      prometheus.Gauge
	builderRejections *prometheus.CounterVec
	submissions       *prometheus.CounterVec

	// Scoring
	lineupsScored    prometheus.Counter
	scoringErrors    *prometheus.CounterVec
	scoringLatency   prometheus.Histogram
	scoringDuplicate prometheus.Counter
	standingsSize    prometheus.Gauge

	// Lineup store
	storeOps        *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	storeCorrupt    prometheus.Counter
	storedLineups   prometheus.Gauge
	breakerState    *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueue     prometheus.Counter
	queueDequeue     prometheus.Counter
	queueEnqueueErrs *prometheus.CounterVec

	// Worker
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

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
		namespace:        "dawgbowl",
		subsystem:        "draft",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: constLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		}, labels)
	}

	m.draftsCreated = counter("drafts_created_total", "Total number of drafts opened")
	m.draftsActive = gauge("drafts_active", "Drafts currently held by sessions")
	m.builderRejections = counterVec("builder_rejections_total", "Roster builder operations rejected, by reason", "op", "reason")
	m.submissions = counterVec("submissions_total", "Lineup submissions by result", "result")

	m.lineupsScored = counter("lineups_scored_total", "Lineups scored into the standings")
	m.scoringErrors = counterVec("scoring_errors_total", "Lineups that could not be scored, by reason", "reason")
	m.scoringLatency = histogram("scoring_latency_milliseconds", "Time to score one lineup in milliseconds", m.histogramBuckets)
	m.scoringDuplicate = counter("scoring_duplicate_total", "Scoring jobs skipped because the same results were already applied")
	m.standingsSize = gauge("standings_entries", "Entries in the current standings")

	m.storeOps = counterVec("store_operations_total", "Lineup store operations", "backend", "op", "result")
	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("store_latency_milliseconds"),
		Help: "Lineup store operation latency in milliseconds", Buckets: m.histogramBuckets, ConstLabels: constLabels,
	}, []string{"backend", "op"})
	m.storeCorrupt = counter("store_corrupt_records_total", "Stored lineups skipped because they failed to decode")
	m.storedLineups = gauge("stored_lineups", "Lineups returned by the last full listing")
	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("store_breaker_state"),
		Help: "Circuit breaker state per backend (0 closed, 1 half-open, 2 open)", ConstLabels: constLabels,
	}, []string{"backend"})

	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRateLimited = counterVec("http_rate_limited_total", "Requests rejected by the rate limiter", "endpoint")

	m.queueSize = gauge("queue_size", "Scoring jobs waiting in the queue")
	m.queueCapacity = gauge("queue_capacity", "Maximum scoring queue capacity")
	m.queueEnqueue = counter("queue_enqueue_total", "Scoring jobs enqueued")
	m.queueDequeue = counter("queue_dequeue_total", "Scoring jobs dequeued")
	m.queueEnqueueErrs = counterVec("queue_enqueue_errors_total", "Scoring jobs rejected by the queue", "reason")

	m.workerCount = gauge("worker_count", "Scoring workers running")
	m.workerProcessingLatency = histogram("worker_processing_latency_milliseconds", "Worker time per job in milliseconds", m.histogramBuckets)
	m.workerErrors = counter("worker_errors_total", "Jobs that failed inside a worker")

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordDraftCreated increments the drafts counter.
func RecordDraftCreated() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.draftsCreated.Inc()
}

// UpdateDraftsActive sets the number of drafts held by sessions.
func UpdateDraftsActive(n int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.draftsActive.Set(float64(n))
}

// RecordBuilderRejection counts a rejected roster builder operation.
func RecordBuilderRejection(op, reason string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.builderRejections.WithLabelValues(op, reason).Inc()
}

// RecordSubmission counts a submission attempt by result ("accepted" or a rejection reason).
func RecordSubmission(result string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.submissions.WithLabelValues(result).Inc()
}

// RecordLineupScored increments the scored lineups counter.
func RecordLineupScored() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.lineupsScored.Inc()
}

// RecordScoringError counts a lineup that failed to score.
func RecordScoringError(reason string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.scoringErrors.WithLabelValues(reason).Inc()
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringDuplicate counts a suppressed duplicate scoring job.
func RecordScoringDuplicate() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.scoringDuplicate.Inc()
}

// UpdateStandingsSize sets the number of standings entries.
func UpdateStandingsSize(n int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.standingsSize.Set(float64(n))
}

// RecordStoreOperation records one lineup store call and its latency.
func RecordStoreOperation(backend, op, result string, latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.storeOps.WithLabelValues(backend, op, result).Inc()
	globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordStoreCorrupt counts stored records skipped during a listing.
func RecordStoreCorrupt(n int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.storeCorrupt.Add(float64(n))
}

// UpdateStoredLineups sets the number of lineups seen by the last listing.
func UpdateStoredLineups(n int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.storedLineups.Set(float64(n))
}

// UpdateBreakerState records the breaker state for a backend.
func UpdateBreakerState(backend string, state int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.breakerState.WithLabelValues(backend).Set(float64(state))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPRateLimited counts a request rejected by the limiter.
func RecordHTTPRateLimited(endpoint string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueEnqueueErrs.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.workerErrors.Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// RefreshInterval is how often gauge updaters should poll.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// SetEnabled switches recording by the package-level helpers on or off.
// Collectors stay registered either way.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// Enabled reports whether the package-level helpers record.
func Enabled() bool { return globalManager.Enabled() }

// RefreshInterval returns the gauge refresh interval of the global manager.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
