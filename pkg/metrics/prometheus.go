// Package metrics provides Prometheus metrics for the T20 score predictor.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Predicted final scores, in runs.
var scoreBuckets = []float64{80, 100, 120, 140, 160, 180, 200, 220, 240, 260}

// Manager manages all Prometheus metrics for the predictor service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction pipeline
	predictionsTotal     prometheus.Counter
	predictionErrors     *prometheus.CounterVec
	modelLatency         prometheus.Histogram
	predictedScore       prometheus.Histogram
	unknownPlayerLookups *prometheus.CounterVec
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	breakerState         prometheus.Gauge
	rateLimited          prometheus.Counter

	// Reference data
	referencePlayers     prometheus.Gauge
	referenceHistoryRows prometheus.Gauge
	referenceTeams       prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // served by /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "t20",
		subsystem:        "predictor",
		histogramBuckets: defaultLatencyBuckets,
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.predictionsTotal = auto.NewCounter(m.counterOpts(
		"predictions_total", "Total number of predictions served"))
	m.predictionErrors = auto.NewCounterVec(m.counterOpts(
		"prediction_errors_total", "Failed prediction attempts by reason"),
		[]string{"reason"})
	m.modelLatency = auto.NewHistogram(m.histogramOpts(
		"model_latency_milliseconds", "Model invocation latency in milliseconds", m.histogramBuckets))
	m.predictedScore = auto.NewHistogram(m.histogramOpts(
		"predicted_score_runs", "Distribution of predicted final scores", scoreBuckets))
	m.unknownPlayerLookups = auto.NewCounterVec(m.counterOpts(
		"unknown_player_lookups_total", "Player lookups that fell back to default stats"),
		[]string{"role"})
	m.cacheHits = auto.NewCounter(m.counterOpts(
		"prediction_cache_hits_total", "Predictions answered from cache"))
	m.cacheMisses = auto.NewCounter(m.counterOpts(
		"prediction_cache_misses_total", "Predictions that required a model call"))
	m.breakerState = auto.NewGauge(m.gaugeOpts(
		"model_breaker_state", "Model circuit breaker state (0 closed, 1 half-open, 2 open)"))
	m.rateLimited = auto.NewCounter(m.counterOpts(
		"rate_limited_total", "Prediction requests rejected by the rate limiter"))

	m.referencePlayers = auto.NewGauge(m.gaugeOpts(
		"reference_players", "Players in the deduplicated statistics table"))
	m.referenceHistoryRows = auto.NewGauge(m.gaugeOpts(
		"reference_history_rows", "Rows loaded from the match history table"))
	m.referenceTeams = auto.NewGauge(m.gaugeOpts(
		"reference_teams", "Teams known to the batting-team encoder"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts(
		"error_latency_milliseconds", "Latency of failed operations in milliseconds", m.histogramBuckets),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordPrediction counts a served prediction and its point estimate.
func RecordPrediction(pointEstimate int) {
	globalManager.predictionsTotal.Inc()
	globalManager.predictedScore.Observe(float64(pointEstimate))
}

// RecordPredictionError counts a failed prediction attempt.
func RecordPredictionError(reason string) {
	globalManager.predictionErrors.WithLabelValues(reason).Inc()
}

// RecordModelLatency records model invocation latency in milliseconds.
func RecordModelLatency(latencyMs float64) {
	globalManager.modelLatency.Observe(latencyMs)
}

// RecordUnknownPlayer counts a default-stat fallback for role.
func RecordUnknownPlayer(role string) {
	globalManager.unknownPlayerLookups.WithLabelValues(role).Inc()
}

// RecordCacheHit counts a prediction answered from cache.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss counts a prediction that went to the model.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// UpdateBreakerState publishes the circuit breaker state by name.
func UpdateBreakerState(state string) error {
	var v float64
	switch state {
	case "closed":
		v = 0
	case "half-open":
		v = 1
	case "open":
		v = 2
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBreakerState, state)
	}
	globalManager.breakerState.Set(v)
	return nil
}

// UpdateReferenceData publishes the sizes of the loaded reference tables.
func UpdateReferenceData(players, historyRows, teams int) {
	globalManager.referencePlayers.Set(float64(players))
	globalManager.referenceHistoryRows.Set(float64(historyRows))
	globalManager.referenceTeams.Set(float64(teams))
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType increments the error counter by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments the error counter by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records latency for failed operations.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry the package-level recorders write to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
