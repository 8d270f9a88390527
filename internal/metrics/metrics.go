// Package metrics holds the prometheus collectors shared by the API and the
// station search.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	nearbySearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nearby_search_results",
			Help:    "Number of stations returned by a nearby search.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	nearbySearchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nearby_search_failures_total",
			Help: "Nearby searches that could not load candidate stations.",
		},
	)

	stationCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "station_cache_results_total",
			Help: "Station candidate cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	ingestedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "Rows processed by the CSV ingestion jobs.",
		},
		[]string{"table", "result"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveNearbyResults(n int) {
	nearbySearchResults.Observe(float64(n))
}

func IncNearbyFailure() {
	nearbySearchFailures.Inc()
}

func IncCacheHit(tier string) {
	stationCacheResults.WithLabelValues(tier, "hit").Inc()
}

func IncCacheMiss(tier string) {
	stationCacheResults.WithLabelValues(tier, "miss").Inc()
}

func IncCacheError(tier string) {
	stationCacheResults.WithLabelValues(tier, "error").Inc()
}

// AddIngested records n rows for table with the given result
// ("inserted", "skipped", "failed").
func AddIngested(table, result string, n int) {
	if n <= 0 {
		return
	}
	ingestedRows.WithLabelValues(table, result).Add(float64(n))
}
