package rail

import "github.com/prometheus/client_golang/prometheus"

var (
	requestCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rail_request_count",
		Help: "Number of requests sent to the rail data endpoint",
	}, []string{"op"})
	errorCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rail_error_count",
		Help: "Number of rail data requests that failed",
	}, []string{"op"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rail_request_duration_seconds",
		Help:    "Latency of rail data requests that received a response",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(requestCount, errorCount, requestDuration)
}

func recordError(op string) {
	errorCount.WithLabelValues(op).Inc()
}
