package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(buildInfo, startedAt, dbPoolConns, dbPoolEmptyAcquires, dbPoolAcquireWait)
}

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Always 1; labels carry the running build.",
		},
		[]string{"version", "commit", "go_version"},
	)

	startedAt = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "started_at_seconds",
			Help:      "Unix time the service started.",
		},
	)

	// state: total|idle|acquired|max
	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_connections",
			Help:      "Postgres pool connections by state.",
		},
		[]string{"state"},
	)

	dbPoolEmptyAcquires = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_empty_acquires",
			Help:      "Acquires that had to wait for a connection since the pool opened.",
		},
	)

	dbPoolAcquireWait = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_acquire_wait_seconds",
			Help:      "Cumulative time spent acquiring connections.",
		},
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
	startedAt.Set(float64(time.Now().Unix()))
}

// PoolSnapshot mirrors the pgxpool counters reported on each tick.
type PoolSnapshot struct {
	Total, Idle, Acquired, Max int32
	EmptyAcquires              int64
	AcquireWait                time.Duration
}

func ReportDBPool(s PoolSnapshot) {
	dbPoolConns.WithLabelValues("total").Set(float64(s.Total))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbPoolConns.WithLabelValues("acquired").Set(float64(s.Acquired))
	dbPoolConns.WithLabelValues("max").Set(float64(s.Max))
	dbPoolEmptyAcquires.Set(float64(s.EmptyAcquires))
	dbPoolAcquireWait.Set(s.AcquireWait.Seconds())
}
