package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentLookupDuration,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Recorded payments by provider and status (approved/pending/other).",
		},
		[]string{"provider", "status"},
	)

	// result: found|not_found|error
	paymentLookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_lookup_duration_seconds",
			Help:      "Duration of provider payment lookups in seconds.",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"provider", "result"},
	)
)

func IncPayment(provider, status string) {
	paymentsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func ObservePaymentLookup(provider, result string, seconds float64) {
	paymentLookupDuration.WithLabelValues(norm(provider), norm(result)).Observe(seconds)
}
