// Package metrics provides Prometheus metrics for the interview scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the scheduler exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics
	schedulingRequests *prometheus.CounterVec
	schedulingFailures *prometheus.CounterVec
	previewRequests    prometheus.Counter
	stageLatency       *prometheus.HistogramVec
	slotsFound         prometheus.Histogram
	commitConflicts    prometheus.Counter

	// Calendar and notification metrics
	calendarQueries   *prometheus.CounterVec
	calendarFallbacks prometheus.Counter
	notifications     *prometheus.CounterVec
	notifyQueueDepth  prometheus.Gauge

	// Ledger metrics
	ledgerInterviews    prometheus.Gauge
	ledgerPersistErrors *prometheus.CounterVec
	rosterActive        prometheus.Gauge
	interviewerWeekly   *prometheus.GaugeVec
	interviewerDeviate  *prometheus.GaugeVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager. Collectors are registered on the
// configured registry, which defaults to prometheus.DefaultRegisterer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "interviewsched",
		subsystem:        "scheduler",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.schedulingRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_total",
		Help:      "Scheduling requests by outcome (committed, failed, invalid)",
	}, []string{"outcome"})

	m.schedulingFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "failures_total",
		Help:      "Failed scheduling requests by reason code",
	}, []string{"reason"})

	m.previewRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "preview_requests_total",
		Help:      "Non-committing preview requests",
	})

	m.stageLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_latency_milliseconds",
		Help:      "Pipeline stage latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.slotsFound = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "slots_found",
		Help:      "Bookable time slots produced per request",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})

	m.commitConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "commit_conflicts_total",
		Help:      "Commits rejected because the slot was booked concurrently",
	})

	m.calendarQueries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calendar_queries_total",
		Help:      "Free/busy queries against the calendar provider by result",
	}, []string{"result"})

	m.calendarFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calendar_fallbacks_total",
		Help:      "Interviewers resolved with simulated availability",
	})

	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_total",
		Help:      "Post-commit notifications by channel and result",
	}, []string{"channel", "result"})

	m.notifyQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_queue_depth",
		Help:      "Announcements waiting for asynchronous delivery",
	})

	m.ledgerInterviews = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_interviews",
		Help:      "Interview records held by the ledger",
	})

	m.ledgerPersistErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_persist_errors_total",
		Help:      "Ledger persistence errors by operation (load, save)",
	}, []string{"op"})

	m.rosterActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_active",
		Help:      "Active interviewers on the roster",
	})

	m.interviewerWeekly = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "interviewer_weekly_interviews",
		Help:      "Interviews in the current capacity window per interviewer",
	}, []string{"interviewer"})

	m.interviewerDeviate = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "interviewer_deviation",
		Help:      "Deviation from fair share per interviewer",
	}, []string{"interviewer"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Heap memory in use in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordSchedulingOutcome counts a scheduling request by outcome.
func RecordSchedulingOutcome(outcome string) {
	globalManager.schedulingRequests.WithLabelValues(outcome).Inc()
}

// RecordSchedulingFailure counts a failed request by reason code.
func RecordSchedulingFailure(reason string) {
	globalManager.schedulingFailures.WithLabelValues(reason).Inc()
}

// RecordPreview counts a preview request.
func RecordPreview() {
	globalManager.previewRequests.Inc()
}

// RecordStageLatency records how long a pipeline stage took.
func RecordStageLatency(stage string, latencyMs float64) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordSlotsFound records the size of a resolved slot sequence.
func RecordSlotsFound(n int) {
	globalManager.slotsFound.Observe(float64(n))
}

// RecordCommitConflict counts a commit rejected by the booking guard.
func RecordCommitConflict() {
	globalManager.commitConflicts.Inc()
}

// RecordCalendarQuery counts a free/busy query by result ("ok", "error", "timeout").
func RecordCalendarQuery(result string) {
	globalManager.calendarQueries.WithLabelValues(result).Inc()
}

// RecordCalendarFallback counts an interviewer resolved with simulated availability.
func RecordCalendarFallback() {
	globalManager.calendarFallbacks.Inc()
}

// RecordNotification counts a post-commit notification attempt.
func RecordNotification(channel, result string) {
	globalManager.notifications.WithLabelValues(channel, result).Inc()
}

// UpdateNotificationQueueDepth sets the number of queued announcements.
func UpdateNotificationQueueDepth(depth int) {
	globalManager.notifyQueueDepth.Set(float64(depth))
}

// UpdateLedgerInterviews sets the number of interview records.
func UpdateLedgerInterviews(count int) {
	globalManager.ledgerInterviews.Set(float64(count))
}

// RecordLedgerPersistError counts a persistence failure by operation.
func RecordLedgerPersistError(op string) {
	globalManager.ledgerPersistErrors.WithLabelValues(op).Inc()
}

// UpdateRosterActive sets the number of active interviewers.
func UpdateRosterActive(count int) {
	globalManager.rosterActive.Set(float64(count))
}

// UpdateInterviewerLoad sets the weekly count and fair-share deviation for one interviewer.
func UpdateInterviewerLoad(interviewerID string, weekly int, deviation float64) {
	globalManager.interviewerWeekly.WithLabelValues(interviewerID).Set(float64(weekly))
	globalManager.interviewerDeviate.WithLabelValues(interviewerID).Set(deviation)
}

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

// UpdateSystemMemoryUsage sets the heap memory in use in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
