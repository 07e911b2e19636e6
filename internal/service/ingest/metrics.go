package ingest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	rows   *prometheus.CounterVec
	chunks *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		rows: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingest",
			Name:      "rows_total",
			Help:      "Confirmed rows by outcome.",
		}, []string{"outcome"}),
		chunks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingest",
			Name:      "chunks_total",
			Help:      "Persisted chunks by result.",
		}, []string{"result"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
