// Package metrics provides Prometheus metrics for the rendezvous discovery service.
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

// DefaultLatencyBuckets covers sub-millisecond cache hits up to slow
// remote dataset fetches.
var DefaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // read-only defaults

// Manager manages all Prometheus metrics for the discovery service.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	registry        prometheus.Registerer

	// Session lifecycle
	logins  prometheus.Counter
	logouts prometheus.Counter

	// Discovery
	partnerSelections     prometheus.Counter
	partnerSelectMisses   prometheus.Counter
	historySize           prometheus.Gauge
	rosterSize            prometheus.Gauge
	partnersListed        prometheus.Histogram
	datasetLoadLatency    *prometheus.HistogramVec
	navigationTransitions *prometheus.CounterVec
	invalidTransitions    *prometheus.CounterVec

	// Detail resolution
	resolutions          *prometheus.CounterVec
	resolutionLatency    prometheus.Histogram
	resolutionsDiscarded prometheus.Counter
	resolverQueueSize    prometheus.Gauge
	resolverQueueDropped prometheus.Counter
	resolverWorkers      prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// Configure replaces the global manager with one built from opts on a
// fresh registry. It must run before any recorder is called or any
// handler captures GetRegistry.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(append([]Option(nil), opts...), WithRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "rendezvous",
		subsystem:       "discovery",
		latencyBuckets:  DefaultLatencyBuckets,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		constLabels:     make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.constLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: constLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: constLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: constLabels,
		}, labels)
	}

	m.logins = counter("logins_total", "Total number of successful logins")
	m.logouts = counter("logouts_total", "Total number of confirmed logouts")

	m.partnerSelections = counter("partner_selections_total", "Total number of partner selections that opened the detail panel")
	m.partnerSelectMisses = counter("partner_selection_misses_total", "Total number of partner selections rejected because the id did not resolve")
	m.historySize = gauge("history_size", "Current number of entries in the recency cache")
	m.rosterSize = gauge("roster_size", "Number of users in the loaded roster")

	m.partnersListed = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "partners_listed",
		Help:        "Number of ranked partners available per list request",
		Buckets:     []float64{0, 1, 5, 8, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: constLabels,
	})

	m.datasetLoadLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "dataset_load_duration_milliseconds",
		Help:        "Time spent fetching and decoding roster and pairing datasets",
		Buckets:     m.latencyBuckets,
		ConstLabels: constLabels,
	}, []string{"dataset"})

	m.navigationTransitions = counterVec("navigation_transitions_total",
		"Navigation transitions applied, by event and panels", "event", "from", "to")
	m.invalidTransitions = counterVec("navigation_invalid_transitions_total",
		"Navigation events ignored because they are illegal in the current panel", "event", "state")

	m.resolutions = counterVec("resolutions_total",
		"Detail resolutions by part (profile, talking_points) and outcome", "part", "outcome")
	m.resolutionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "resolution_latency_milliseconds",
		Help:        "Time from job dequeue to result delivery",
		Buckets:     m.latencyBuckets,
		ConstLabels: constLabels,
	})
	m.resolutionsDiscarded = counter("resolutions_discarded_total",
		"Resolution results discarded because the selection changed before they arrived")
	m.resolverQueueSize = gauge("resolver_queue_size", "Current number of queued resolution jobs")
	m.resolverQueueDropped = counter("resolver_queue_dropped_total", "Resolution jobs rejected by a full or closed queue")
	m.resolverWorkers = gauge("resolver_workers", "Number of running resolver workers")

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.latencyBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")
}

// RecordLogin increments the login counter.
func RecordLogin() {
	if globalManager.enabled {
		globalManager.logins.Inc()
	}
}

// RecordLogout increments the logout counter.
func RecordLogout() {
	if globalManager.enabled {
		globalManager.logouts.Inc()
	}
}

// RecordPartnerSelection increments the selection counter.
func RecordPartnerSelection() {
	if globalManager.enabled {
		globalManager.partnerSelections.Inc()
	}
}

// RecordPartnerSelectionMiss increments the rejected selection counter.
func RecordPartnerSelectionMiss() {
	if globalManager.enabled {
		globalManager.partnerSelectMisses.Inc()
	}
}

// UpdateHistorySize sets the recency cache size.
func UpdateHistorySize(size int) {
	globalManager.historySize.Set(float64(size))
}

// UpdateRosterSize sets the roster size.
func UpdateRosterSize(size int) {
	globalManager.rosterSize.Set(float64(size))
}

// RecordPartnersListed observes the number of ranked partners served.
func RecordPartnersListed(n int) {
	if globalManager.enabled {
		globalManager.partnersListed.Observe(float64(n))
	}
}

// RecordDatasetLoadLatency records how long a dataset fetch took.
func RecordDatasetLoadLatency(dataset string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.datasetLoadLatency.WithLabelValues(dataset).Observe(latencyMs)
	}
}

// RecordNavigationTransition counts an applied navigation transition.
func RecordNavigationTransition(event, from, to string) {
	if globalManager.enabled {
		globalManager.navigationTransitions.WithLabelValues(event, from, to).Inc()
	}
}

// RecordInvalidTransition counts an ignored navigation event.
func RecordInvalidTransition(event, state string) {
	if globalManager.enabled {
		globalManager.invalidTransitions.WithLabelValues(event, state).Inc()
	}
}

// RecordResolution counts a resolution outcome for one detail part.
func RecordResolution(part, outcome string) {
	if globalManager.enabled {
		globalManager.resolutions.WithLabelValues(part, outcome).Inc()
	}
}

// RecordResolutionLatency records resolution latency in milliseconds.
func RecordResolutionLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.resolutionLatency.Observe(latencyMs)
	}
}

// RecordResolutionDiscarded counts a stale result that was dropped.
func RecordResolutionDiscarded() {
	if globalManager.enabled {
		globalManager.resolutionsDiscarded.Inc()
	}
}

// UpdateResolverQueueSize sets the resolver queue length.
func UpdateResolverQueueSize(size int) {
	globalManager.resolverQueueSize.Set(float64(size))
}

// RecordResolverQueueDropped counts a job rejected by the queue.
func RecordResolverQueueDropped() {
	if globalManager.enabled {
		globalManager.resolverQueueDropped.Inc()
	}
}

// UpdateResolverWorkers sets the number of running resolver workers.
func UpdateResolverWorkers(count int) {
	globalManager.resolverWorkers.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RefreshInterval reports how often gauge updaters should run.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
