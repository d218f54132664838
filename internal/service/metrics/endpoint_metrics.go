package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nextclose",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of forecast endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nextclose",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by forecast endpoint and code",
		},
		[]string{"endpoint", "code"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nextclose",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, RateLimited)
	})
}
