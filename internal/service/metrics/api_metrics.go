package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skyindex",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of index API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skyindex",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by index API endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors)
	})
}
