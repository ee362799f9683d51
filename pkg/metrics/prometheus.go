// Package metrics provides Prometheus metrics for the questboard leaderboard core.
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

// Manager manages all Prometheus metrics for the questboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Award pipeline metrics
	awardsProcessed prometheus.Counter
	awardsDuplicate prometheus.Counter
	awardsFailed    prometheus.Counter
	awardLatency    prometheus.Histogram
	badgeUnlocks    prometheus.Counter

	// Rank store metrics
	rankstoreScopes        prometheus.Gauge
	rankstoreMembersTotal  prometheus.Gauge
	rankstoreMembersScoped *prometheus.GaugeVec
	rankstoreUpdateLatency prometheus.Histogram
	rankstoreQueryLatency  prometheus.Histogram
	rankstoreSyncErrors    prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerActiveCount prometheus.Gauge
	workerLatency     prometheus.Histogram
	workerErrors      prometheus.Counter

	// Broadcast hub metrics
	hubConnections   prometheus.Gauge
	hubSubscriptions prometheus.Gauge
	hubPublishes     prometheus.Counter
	hubDeliveries    prometheus.Counter
	hubDrops         prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "questboard",
		subsystem:        "leaderboard",
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.awardsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "awards_processed_total",
		Help:      "Total number of quest awards processed",
	})
	m.awardsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "awards_duplicate_total",
		Help:      "Total number of duplicate award submissions",
	})
	m.awardsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "awards_failed_total",
		Help:      "Total number of awards that failed before persistence",
	})
	m.awardLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "award_latency_milliseconds",
		Help:      "Award processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.badgeUnlocks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "badge_unlocks_total",
		Help:      "Total number of badge unlocks granted",
	})

	m.rankstoreScopes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankstore_scopes",
		Help:      "Number of ranking scopes currently tracked",
	})
	m.rankstoreMembersTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankstore_members_total",
		Help:      "Number of members tracked in the global scope",
	})
	m.rankstoreMembersScoped = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankstore_members_per_scope",
		Help:      "Number of members tracked per scope",
	}, []string{"scope"})
	m.rankstoreUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankstore_update_latency_milliseconds",
		Help:      "Rank store upsert latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.rankstoreQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankstore_query_latency_milliseconds",
		Help:      "Rank store query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.rankstoreSyncErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankstore_sync_errors_total",
		Help:      "Total number of score sync failures",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of pending rank updates in the queue",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the rank update queue",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Queue utilization ratio (0-1)",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Total number of rank updates enqueued",
	})
	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Total number of rank updates dequeued",
	})
	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of failed enqueue attempts",
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of active snapshot workers",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Snapshot worker processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker processing errors",
	})

	m.hubConnections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_connections",
		Help:      "Number of live websocket connections",
	})
	m.hubSubscriptions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_subscriptions",
		Help:      "Number of active scope subscriptions",
	})
	m.hubPublishes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_publishes_total",
		Help:      "Total number of snapshot publishes",
	})
	m.hubDeliveries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_deliveries_total",
		Help:      "Total number of per-subscriber deliveries",
	})
	m.hubDrops = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hub_drops_total",
		Help:      "Total number of deliveries dropped due to slow subscribers",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// Award pipeline helpers.

// RecordAwardProcessed increments the processed awards counter.
func RecordAwardProcessed() {
	globalManager.awardsProcessed.Inc()
}

// RecordAwardDuplicate increments the duplicate awards counter.
func RecordAwardDuplicate() {
	globalManager.awardsDuplicate.Inc()
}

// RecordAwardFailed increments the failed awards counter.
func RecordAwardFailed() {
	globalManager.awardsFailed.Inc()
}

// RecordAwardLatency records end-to-end award latency in milliseconds.
func RecordAwardLatency(latencyMs float64) {
	globalManager.awardLatency.Observe(latencyMs)
}

// RecordBadgeUnlocks adds n to the badge unlocks counter.
func RecordBadgeUnlocks(n int) {
	globalManager.badgeUnlocks.Add(float64(n))
}

// Rank store helpers.

// UpdateRankStoreScopes sets the number of tracked scopes.
func UpdateRankStoreScopes(count int) {
	globalManager.rankstoreScopes.Set(float64(count))
}

// UpdateRankStoreMembersTotal sets the global-scope member count.
func UpdateRankStoreMembersTotal(count int) {
	globalManager.rankstoreMembersTotal.Set(float64(count))
}

// UpdateRankStoreMembers sets the member count for a scope.
func UpdateRankStoreMembers(scope string, count int) {
	globalManager.rankstoreMembersScoped.WithLabelValues(scope).Set(float64(count))
}

// RecordRankStoreUpdateLatency records upsert latency in milliseconds.
func RecordRankStoreUpdateLatency(latencyMs float64) {
	globalManager.rankstoreUpdateLatency.Observe(latencyMs)
}

// RecordRankStoreQueryLatency records query latency in milliseconds.
func RecordRankStoreQueryLatency(latencyMs float64) {
	globalManager.rankstoreQueryLatency.Observe(latencyMs)
}

// RecordSyncError increments the score sync error counter.
func RecordSyncError() {
	globalManager.rankstoreSyncErrors.Inc()
}

// Queue helpers.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker helpers.

// UpdateWorkerActiveCount sets the active worker count.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerLatency records worker processing latency in milliseconds.
func RecordWorkerLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Hub helpers.

// UpdateHubConnections sets the live connection count.
func UpdateHubConnections(count int) {
	globalManager.hubConnections.Set(float64(count))
}

// UpdateHubSubscriptions sets the active subscription count.
func UpdateHubSubscriptions(count int) {
	globalManager.hubSubscriptions.Set(float64(count))
}

// RecordHubPublish increments the publish counter.
func RecordHubPublish() {
	globalManager.hubPublishes.Inc()
}

// RecordHubDelivery increments the per-subscriber delivery counter.
func RecordHubDelivery() {
	globalManager.hubDeliveries.Inc()
}

// RecordHubDrop increments the dropped delivery counter.
func RecordHubDrop() {
	globalManager.hubDrops.Inc()
}

// HTTP helpers.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Error helpers.

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System helpers.

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry for serving /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
