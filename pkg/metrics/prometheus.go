// Package metrics provides Prometheus metrics for the stampcard service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by sync and append metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDropped = "dropped"
)

// Manager owns every stampcard collector.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Replay
	eventsReplayed prometheus.Counter
	eventsSkipped  prometheus.Counter
	syncs          *prometheus.CounterVec
	syncLatency    prometheus.Histogram
	syncInFlight   prometheus.Gauge

	// Append path
	appends          *prometheus.CounterVec
	appendLatency    prometheus.Histogram
	appendQueueSize  prometheus.Gauge
	optimisticEvents *prometheus.CounterVec
	rejectedActions  *prometheus.CounterVec

	// Profile state
	activeCount   *prometheus.GaugeVec
	completedSets *prometheus.GaugeVec

	// Local log server
	logRowsStored    prometheus.Gauge
	logDuplicateRows prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// Process
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPause        prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "stampcard",
		subsystem:        "card",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(auto promauto.Factory, name, help string) prometheus.Counter {
	return auto.NewCounter(prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help})
}

func (m *Manager) gauge(auto promauto.Factory, name, help string) prometheus.Gauge {
	return auto.NewGauge(prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help})
}

func (m *Manager) histogram(auto promauto.Factory, name, help string) prometheus.Histogram {
	return auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) counterVec(auto promauto.Factory, name, help string, labels ...string) *prometheus.CounterVec {
	return auto.NewCounterVec(prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}, labels)
}

func (m *Manager) gaugeVec(auto promauto.Factory, name, help string, labels ...string) *prometheus.GaugeVec {
	return auto.NewGaugeVec(prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsReplayed = m.counter(auto, "events_replayed_total", "Events folded during full log replays")
	m.eventsSkipped = m.counter(auto, "events_skipped_total", "Malformed or unknown log rows skipped during replay")
	m.syncs = m.counterVec(auto, "syncs_total", "Log replays by outcome", "outcome")
	m.syncLatency = m.histogram(auto, "sync_latency_milliseconds", "Fetch plus replay latency in milliseconds")
	m.syncInFlight = m.gauge(auto, "sync_in_flight", "Replays currently fetching the log")

	m.appends = m.counterVec(auto, "appends_total", "Log appends by outcome", "outcome")
	m.appendLatency = m.histogram(auto, "append_latency_milliseconds", "Log append latency in milliseconds")
	m.appendQueueSize = m.gauge(auto, "append_queue_size", "Events waiting to be appended to the log")
	m.optimisticEvents = m.counterVec(auto, "optimistic_events_total", "Locally applied events by kind", "kind")
	m.rejectedActions = m.counterVec(auto, "rejected_actions_total", "User actions rejected before producing an event", "reason")

	m.activeCount = m.gaugeVec(auto, "active_count", "Stamps in the open set", "profile")
	m.completedSets = m.gaugeVec(auto, "completed_sets", "Completed stamp sets", "profile")

	m.logRowsStored = m.gauge(auto, "log_rows_stored", "Rows held by the local log server")
	m.logDuplicateRows = m.counter(auto, "log_duplicate_rows_total", "Appends ignored by the local log server as duplicates")

	m.httpRequests = m.counterVec(auto, "http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec(auto, "errors_total", "Errors by component and type", "component", "error_type")

	m.memoryUsage = m.gauge(auto, "system_memory_bytes", "Heap bytes allocated")
	m.goroutineCount = m.gauge(auto, "system_goroutines", "Number of goroutines")
	m.gcPause = m.histogram(auto, "system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

func checkOutcome(outcome string) error {
	switch outcome {
	case OutcomeSuccess, OutcomeFailure, OutcomeDropped:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
}

// Replay metrics.

// RecordReplay records one completed replay.
func RecordReplay(applied, skipped int) {
	globalManager.eventsReplayed.Add(float64(applied))
	globalManager.eventsSkipped.Add(float64(skipped))
}

// RecordSync counts a sync attempt by outcome.
func RecordSync(outcome string) error {
	if err := checkOutcome(outcome); err != nil {
		return err
	}
	globalManager.syncs.WithLabelValues(outcome).Inc()
	return nil
}

// RecordSyncLatency observes fetch plus replay latency.
func RecordSyncLatency(latencyMs float64) {
	globalManager.syncLatency.Observe(latencyMs)
}

// UpdateSyncInFlight sets the number of in-flight replays.
func UpdateSyncInFlight(n int) {
	globalManager.syncInFlight.Set(float64(n))
}

// Append metrics.

// RecordAppend counts an append by outcome.
func RecordAppend(outcome string) error {
	if err := checkOutcome(outcome); err != nil {
		return err
	}
	globalManager.appends.WithLabelValues(outcome).Inc()
	return nil
}

// RecordAppendLatency observes a single append round trip.
func RecordAppendLatency(latencyMs float64) {
	globalManager.appendLatency.Observe(latencyMs)
}

// UpdateAppendQueueSize sets the append backlog.
func UpdateAppendQueueSize(size int) {
	globalManager.appendQueueSize.Set(float64(size))
}

// RecordOptimisticEvent counts a locally applied event.
func RecordOptimisticEvent(kind string) {
	globalManager.optimisticEvents.WithLabelValues(kind).Inc()
}

// RecordRejectedAction counts an action refused by input validation.
func RecordRejectedAction(reason string) {
	globalManager.rejectedActions.WithLabelValues(reason).Inc()
}

// Profile metrics.

// UpdateProfile publishes the counters of one profile.
func UpdateProfile(profile string, activeCount, completedSets int) {
	globalManager.activeCount.WithLabelValues(profile).Set(float64(activeCount))
	globalManager.completedSets.WithLabelValues(profile).Set(float64(completedSets))
}

// Log server metrics.

// UpdateLogRowsStored sets the number of stored rows.
func UpdateLogRowsStored(n int) {
	globalManager.logRowsStored.Set(float64(n))
}

// RecordLogDuplicateRow counts an ignored duplicate append.
func RecordLogDuplicateRow() {
	globalManager.logDuplicateRows.Inc()
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry holding the stampcard collectors.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.goroutineCount.Set(float64(n))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.gcPause.Observe(ms)
}
