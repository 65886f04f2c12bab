package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sessionLookupsTotal, sessionRegistryDropsTotal, rateLimitedTotal) }

var (
	// source: registry|store
	sessionLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_session_lookups_total",
			Help:      "Poll session reads by where they were served from.",
		},
		[]string{"source", "result"},
	)

	sessionRegistryDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_session_registry_drops_total",
			Help:      "Live sessions removed from the in-process registry by expiry, capacity or failed start.",
		},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-user rate limiter.",
		},
		[]string{"action"},
	)
)

func ObserveSessionLookup(source string, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	sessionLookupsTotal.WithLabelValues(norm(source), result).Inc()
}

func IncSessionRegistryDrop() { sessionRegistryDropsTotal.Inc() }

func IncRateLimited(action string) { rateLimitedTotal.WithLabelValues(norm(action)).Inc() }
