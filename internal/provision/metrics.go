package provision

import "github.com/prometheus/client_golang/prometheus"

var modelDownloadsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "parkd",
		Subsystem: "model",
		Name:      "downloads_total",
		Help:      "Total number of model artifact downloads",
	},
)

func init() {
	prometheus.MustRegister(modelDownloadsTotal)
}
