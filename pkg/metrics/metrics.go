// Package metrics provides Prometheus metrics for the tally scoreboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Realtime metrics
	realtimePublished *prometheus.CounterVec
	sseClients        prometheus.Gauge

	// Kiosk metrics
	kioskTransitions   prometheus.Counter
	kioskDeferredLoads prometheus.Counter
	kioskPinFailures   prometheus.Counter

	// Billing webhook metrics
	webhookEvents     *prometheus.CounterVec
	webhookDuplicates prometheus.Counter
	webhookRejected   *prometheus.CounterVec

	// Store metrics
	storeQueryLatency prometheus.Histogram
	storeErrors       prometheus.Counter

	// Pending delete metrics
	pendingDeletes   prometheus.Gauge
	deletesExecuted  prometheus.Counter
	deletesCancelled prometheus.Counter

	// Export metrics
	csvExports prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tally",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})

	m.realtimePublished = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "realtime_notifications_total",
		Help:      "Change notifications published per stream.",
	}, []string{"stream"})

	m.sseClients = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "sse_clients",
		Help:      "Currently connected SSE clients.",
	})

	m.kioskTransitions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "kiosk_slide_transitions_total",
		Help:      "Kiosk carousel slide transitions.",
	})

	m.kioskDeferredLoads = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "kiosk_deferred_refreshes_total",
		Help:      "Entry refreshes deferred until the scoreboard slide was due.",
	})

	m.kioskPinFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "kiosk_pin_failures_total",
		Help:      "Failed kiosk PIN verification attempts.",
	})

	m.webhookEvents = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "webhook_events_total",
		Help:      "Billing webhook events processed by event name.",
	}, []string{"event"})

	m.webhookDuplicates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "webhook_duplicate_events_total",
		Help:      "Billing webhook events skipped as duplicates.",
	})

	m.webhookRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "webhook_rejected_total",
		Help:      "Billing webhook requests rejected before processing.",
	}, []string{"reason"})

	m.storeQueryLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "store_query_duration_ms",
		Help:      "Store query duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.storeErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "store_errors_total",
		Help:      "Store operation failures.",
	})

	m.pendingDeletes = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "pending_deletes",
		Help:      "Deletions currently waiting in the undo window.",
	})

	m.deletesExecuted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "deletes_executed_total",
		Help:      "Deferred deletions that fired.",
	})

	m.deletesCancelled = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "deletes_cancelled_total",
		Help:      "Deferred deletions cancelled via undo.",
	})

	m.csvExports = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "csv_exports_total",
		Help:      "CSV export downloads served.",
	})
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording through the global manager.

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(ms)
}

func RecordRealtimePublished(stream string) {
	globalManager.realtimePublished.WithLabelValues(stream).Inc()
}

func SSEClientConnected()    { globalManager.sseClients.Inc() }
func SSEClientDisconnected() { globalManager.sseClients.Dec() }

func RecordKioskTransition()      { globalManager.kioskTransitions.Inc() }
func RecordKioskDeferredRefresh() { globalManager.kioskDeferredLoads.Inc() }
func RecordKioskPinFailure()      { globalManager.kioskPinFailures.Inc() }

func RecordWebhookEvent(event string) {
	globalManager.webhookEvents.WithLabelValues(event).Inc()
}

func RecordWebhookDuplicate() { globalManager.webhookDuplicates.Inc() }

func RecordWebhookRejected(reason string) {
	globalManager.webhookRejected.WithLabelValues(reason).Inc()
}

func RecordStoreQueryLatency(ms float64) { globalManager.storeQueryLatency.Observe(ms) }
func RecordStoreError()                  { globalManager.storeErrors.Inc() }

func UpdatePendingDeletes(n int)  { globalManager.pendingDeletes.Set(float64(n)) }
func RecordDeleteExecuted()       { globalManager.deletesExecuted.Inc() }
func RecordDeleteCancelled()      { globalManager.deletesCancelled.Inc() }

func RecordCSVExport() { globalManager.csvExports.Inc() }
