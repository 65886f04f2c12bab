package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(planJobsProcessedTotal, planJobsRequeuedTotal) }

var (
	planJobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_jobs_processed_total",
			Help:      "Plan generation jobs processed, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed', 'retry'
	)

	planJobsRequeuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_jobs_requeued_total",
			Help:      "Approved payments the reconciler found without a plan and re-enqueued.",
		},
	)
)

func IncPlanJob(status string) {
	planJobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func IncPlanJobRequeued() { planJobsRequeuedTotal.Inc() }
