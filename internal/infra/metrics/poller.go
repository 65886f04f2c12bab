package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		pollOutcomesTotal,
		confirmationsTotal,
		readinessChecksTotal,
		pollSessionsActive,
	)
}

var (
	// outcome: found|timed_out|error|cancelled|not_approved
	pollOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_outcomes_total",
			Help:      "Payment confirmation flows by terminal outcome.",
		},
		[]string{"outcome"},
	)

	// status: approved|pending|other|error
	confirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_confirmations_total",
			Help:      "Confirmation calls issued from the result screen, by payment status.",
		},
		[]string{"status"},
	)

	// result: ready|not_ready|error
	readinessChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_readiness_checks_total",
			Help:      "Plan readiness checks by result.",
		},
		[]string{"result"},
	)

	pollSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poll_sessions_active",
			Help:      "Poll sessions currently running in this process.",
		},
	)
)

func IncPollOutcome(outcome string) {
	pollOutcomesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncConfirmation(status string) {
	confirmationsTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveReadinessCheck(result string) {
	readinessChecksTotal.WithLabelValues(norm(result)).Inc()
}

func SessionStarted()  { pollSessionsActive.Inc() }
func SessionFinished() { pollSessionsActive.Dec() }
