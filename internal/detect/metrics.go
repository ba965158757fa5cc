package detect

import "github.com/prometheus/client_golang/prometheus"

var inferenceDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "parkd",
		Subsystem: "detect",
		Name:      "inference_duration_seconds",
		Help:      "Duration of one decode-detect-annotate pass in seconds",
		Buckets:   prometheus.DefBuckets,
	},
)

func init() {
	prometheus.MustRegister(inferenceDuration)
}
