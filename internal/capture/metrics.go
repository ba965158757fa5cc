package capture

import "github.com/prometheus/client_golang/prometheus"

var attemptsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "parkd",
		Subsystem: "capture",
		Name:      "attempts_total",
		Help:      "Capture attempts by adapter and outcome",
	},
	[]string{"adapter", "outcome"},
)

func init() {
	prometheus.MustRegister(attemptsTotal)
}
