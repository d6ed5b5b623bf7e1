package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	stockImporter = "stock_importer"

	// Import job metrics
	importsTotal      = "imports_total"
	rowsProcessed     = "rows_processed_total"
	rowsRejectedTotal = "rows_rejected_total"
	activeImports     = "active_imports"

	// Labels
	importModeLabel   = "mode"
	importStatusLabel = "status"
	rejectReasonLabel = "reason"
)

var importsTotalLabels = []string{
	importModeLabel,
	importStatusLabel,
}

var rowsRejectedLabels = []string{
	rejectReasonLabel,
}

/**
* Metrics definition
**/
var importsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: stockImporter,
		Name:      importsTotal,
		Help:      "number of import jobs by mode and terminal status",
	},
	importsTotalLabels,
)

var rowsProcessedMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: stockImporter,
		Name:      rowsProcessed,
		Help:      "number of rows pulled from uploaded files",
	},
)

var rowsRejectedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: stockImporter,
		Name:      rowsRejectedTotal,
		Help:      "number of rows rejected by validation, partitioned by reason",
	},
	rowsRejectedLabels,
)

var activeImportsMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: stockImporter,
		Name:      activeImports,
		Help:      "number of import jobs currently running in the worker pool",
	},
)

func IncreaseImportsTotalMetric(mode string, status string) {
	labels := prometheus.Labels{
		importModeLabel:   mode,
		importStatusLabel: status,
	}
	importsTotalMetric.With(labels).Inc()
}

func AddRowsProcessedMetric(count int64) {
	rowsProcessedMetric.Add(float64(count))
}

func IncreaseRowsRejectedMetric(reason string) {
	rowsRejectedMetric.With(prometheus.Labels{rejectReasonLabel: reason}).Inc()
}

func UpdateActiveImportsMetric(count int) {
	activeImportsMetric.Set(float64(count))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(importsTotalMetric)
	prometheus.MustRegister(rowsProcessedMetric)
	prometheus.MustRegister(rowsRejectedMetric)
	prometheus.MustRegister(activeImportsMetric)
}
