package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names are prefixed so dashboards can tell this service apart on a shared Prometheus.
const namespace = "fitplan"

var (
	registerOnce sync.Once
	declared     []prometheus.Collector
)

// register is called from init in every file that declares collectors.
func register(cs ...prometheus.Collector) { declared = append(declared, cs...) }

// MustRegister publishes the collectors on the default registry. Later calls are no-ops.
func MustRegister() {
	registerOnce.Do(func() { MustRegisterTo(prometheus.DefaultRegisterer) })
}

func MustRegisterTo(reg prometheus.Registerer) { reg.MustRegister(declared...) }

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
