package services

import "github.com/prometheus/client_golang/prometheus"

// cacheReqs counts cache-aside lookups by table and outcome ("hit"/"miss").
// Only consulted lookups count: with caching disabled nothing is recorded.
var cacheReqs = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Total number of cache lookups by table and outcome.",
	},
	[]string{"table", "outcome"},
)

func init() {
	prometheus.MustRegister(cacheReqs)
}

func recordCache(table string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheReqs.WithLabelValues(table, outcome).Inc()
}
