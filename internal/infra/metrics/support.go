package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(supportAlertsTotal) }

var supportAlertsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "support_alerts_total",
		Help:      "Support alerts about stuck payment flows.",
	},
	[]string{"kind", "status"}, // kind: timed_out|error, status: sent|failed|disabled
)

func IncSupportAlert(kind, status string) {
	supportAlertsTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}
