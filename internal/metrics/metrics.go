// Package metrics provides centralized Prometheus metrics registry for the results importer.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ol_results",
		Name:      "cache_hits_total",
		Help:      "Total number of event cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ol_results",
		Name:      "cache_misses_total",
		Help:      "Total number of event cache misses",
	})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ol_results",
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	})
	FetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ol_results",
		Name:      "fetches_total",
		Help:      "Total number of remote result list fetches by status",
	}, []string{"status"})
)

// Gauge metrics
var (
	EventsStored = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ol_results",
		Name:      "events_stored",
		Help:      "Number of events held by the repository",
	})
)

// Histogram metrics
var (
	FetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ol_results",
		Name:      "fetch_latency_seconds",
		Help:      "Latency of remote result list fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(CacheHitsTotal)
		registry.MustRegister(CacheMissesTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(FetchesTotal)

		// Register gauge metrics
		registry.MustRegister(EventsStored)

		// Register histogram metrics
		registry.MustRegister(FetchLatency)

		// Register import metrics
		registry.MustRegister(ImportsTotal)
		registry.MustRegister(ImportDuration)
		registry.MustRegister(ImportBatchesTotal)
		registry.MustRegister(ImportResultsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordCacheHit records an event cache hit.
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records an event cache miss.
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// RecordFetch records a remote fetch with its outcome and latency.
// status should be one of: "success", "failure"
func RecordFetch(status string, durationSeconds float64) {
	FetchesTotal.WithLabelValues(status).Inc()
	FetchLatency.Observe(durationSeconds)
}

// UpdateEventsStored updates the stored events gauge.
func UpdateEventsStored(count float64) {
	EventsStored.Set(count)
}

// RecordEventCreated increments the stored events gauge.
func RecordEventCreated() {
	EventsStored.Inc()
}
