package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sync Prometheus metrics.
var (
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs by final state",
		},
		[]string{"state"},
	)

	SyncRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "sync_run_duration_seconds",
			Help:      "Sync run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		},
	)

	SyncPagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_pages_total",
			Help:      "Record pages fully applied to the index",
		},
	)

	SyncBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_batches_total",
			Help:      "Bulk batches submitted",
		},
		[]string{"op", "status"},
	)

	SyncDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_documents_total",
			Help:      "Documents upserted or deleted",
		},
		[]string{"op"},
	)

	SyncState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "sync_state",
			Help:      "1 for the current sync state, 0 otherwise",
		},
		[]string{"state"},
	)
)

var syncMetricsRegistered bool

// RegisterSyncMetrics registers Prometheus sync metrics. Must be called once from main.
func RegisterSyncMetrics() {
	if syncMetricsRegistered {
		return
	}
	prometheus.MustRegister(SyncRunsTotal)
	prometheus.MustRegister(SyncRunDuration)
	prometheus.MustRegister(SyncPagesTotal)
	prometheus.MustRegister(SyncBatchesTotal)
	prometheus.MustRegister(SyncDocumentsTotal)
	prometheus.MustRegister(SyncState)
	syncMetricsRegistered = true
}
