// Package metrics defines and registers all custom Prometheus metrics for
// the flight tracker proxy. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "flighttracker"

// UpstreamRequestsTotal counts calls to third-party data sources.
// Labels:
//   - source: "opensky", "aerodatabox", "hexdb", "adsbexchange", "opensky-csv", "vestaboard"
//   - outcome: "ok", "absent", "error"
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of third-party source calls, by source and outcome.",
	},
	[]string{"source", "outcome"},
)

// EnrichmentDuration measures how long one enrichment operation takes
// end-to-end, fallback chain included.
// Label:
//   - operation: "nearby" or "details"
var EnrichmentDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "enrichment_duration_seconds",
		Help:      "Duration of enrichment pipeline operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// NotificationsTotal counts display notification attempts.
// Label:
//   - result: "sent", "duplicate", "failed"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of display notification attempts, by result.",
	},
	[]string{"result"},
)

// TrackedAircraft tracks the current size of the notified set.
var TrackedAircraft = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracked_aircraft",
		Help:      "Current number of aircraft in the notified set.",
	},
)

// PollerChecksTotal counts automated detection sweeps.
// Label:
//   - outcome: "ok", "empty", "error"
var PollerChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poller_checks_total",
		Help:      "Total number of automated detection sweeps, by outcome.",
	},
	[]string{"outcome"},
)

// cacheStats is implemented by the TTL cache stores.
type cacheStats interface {
	Hits() int64
	Misses() int64
}

// RegisterCache exposes hit/miss counters for one named cache store.
func RegisterCache(name string, store cacheStats) {
	promauto.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "cache_hits_total",
		Help:        "Total cache lookups served without invoking the fetch function.",
		ConstLabels: prometheus.Labels{"cache": name},
	}, func() float64 { return float64(store.Hits()) })
	promauto.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "cache_misses_total",
		Help:        "Total cache lookups that invoked the fetch function.",
		ConstLabels: prometheus.Labels{"cache": name},
	}, func() float64 { return float64(store.Misses()) })
}
