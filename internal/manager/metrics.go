package manager

import "github.com/prometheus/client_golang/prometheus"

var occupancyRate = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "parkd",
		Subsystem: "lot",
		Name:      "occupancy_rate",
		Help:      "Occupancy percentage from the most recent analysis",
	},
)

func init() {
	prometheus.MustRegister(occupancyRate)
}
