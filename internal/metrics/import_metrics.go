// Package metrics defines import-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Import status label values
const (
	ImportStatusSuccess          = "success"
	ImportStatusIOError          = "io_error"
	ImportStatusParseError       = "parse_error"
	ImportStatusPersistenceError = "persistence_error"
)

// Import counter vectors
var (
	ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ol_results",
		Name:      "imports_total",
		Help:      "Total number of result list imports by status",
	}, []string{"status"})
	ImportResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ol_results",
		Name:      "import_results_total",
		Help:      "Total number of competitor results persisted by imports",
	})
	ImportBatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ol_results",
		Name:      "import_batches_total",
		Help:      "Total number of class result batches persisted",
	})
)

// Import histograms
var (
	ImportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ol_results",
		Name:      "import_duration_seconds",
		Help:      "Duration of result list imports in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// RecordImport records a finished import.
// status should be one of: "success", "io_error", "parse_error", "persistence_error"
func RecordImport(status string, durationSeconds float64) {
	ImportsTotal.WithLabelValues(status).Inc()
	ImportDuration.Observe(durationSeconds)
}

// RecordImportBatch records one persisted batch of class results.
func RecordImportBatch(results int) {
	ImportBatchesTotal.Inc()
	ImportResultsTotal.Add(float64(results))
}
