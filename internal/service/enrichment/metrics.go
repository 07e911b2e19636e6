package enrichment

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	models *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		models: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingest",
			Subsystem: "enrichment",
			Name:      "models_total",
			Help:      "Enrichment attempts by result.",
		}, []string{"result"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
