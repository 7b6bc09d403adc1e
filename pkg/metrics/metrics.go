package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts intercepted asset requests by result (hit|miss|bypass|uncontrolled).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dabifac_asset_cache_lookups_total",
			Help: "Total number of intercepted asset requests by cache result",
		},
		[]string{"result"},
	)

	// UpstreamFetches counts live fetches against the asset origin by phase (install|request) and outcome.
	UpstreamFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dabifac_asset_upstream_fetches_total",
			Help: "Total number of upstream asset fetches",
		},
		[]string{"phase", "outcome"},
	)

	// InstallDuration measures snapshot install runs by result (success|failure).
	InstallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dabifac_asset_install_duration_seconds",
			Help:    "Duration of snapshot installs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// SnapshotsPurged counts stale snapshots evicted during activation or sweeps.
	SnapshotsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dabifac_asset_snapshots_purged_total",
			Help: "Total number of stale snapshots deleted",
		},
	)

	// CombinationOps counts combination store operations by op (list|save|get|delete) and result.
	CombinationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dabifac_combination_store_operations_total",
			Help: "Total number of combination store operations",
		},
		[]string{"op", "result"},
	)

	// APIInFlight tracks HTTP requests currently being served.
	APIInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dabifac_api_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dabifac_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Result maps an error to the result label used by the counters above.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
