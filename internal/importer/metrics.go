package importer

import "github.com/prometheus/client_golang/prometheus"

var (
	importRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entsoe_import_runs_total",
			Help: "Import runs by country and outcome.",
		},
		[]string{"country", "status"},
	)
	beliefsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "entsoe_beliefs_saved_total",
			Help: "Belief records newly persisted.",
		},
	)
	importDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "entsoe_import_duration_seconds",
			Help:    "Wall-clock duration of import runs.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RegisterMetrics registers the importer's collectors, typically with the
// default registry before serving /metrics.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(importRuns, beliefsSaved, importDuration)
}
