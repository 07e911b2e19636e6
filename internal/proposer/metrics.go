package proposer

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests *prometheus.CounterVec
	retries  prometheus.Counter
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingest",
			Subsystem: "proposer",
			Name:      "requests_total",
			Help:      "Mapping proposals by final result.",
		}, []string{"result"}),
		retries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "ingest",
			Subsystem: "proposer",
			Name:      "retries_total",
			Help:      "Proposer calls retried after an overload signal.",
		}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
