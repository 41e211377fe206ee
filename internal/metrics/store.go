package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Store-related Prometheus metrics. Defined in a standalone package to avoid
// import cycles between the repository engine and the adapters.

var (
	StoreOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_store_operations_total",
		Help: "Operaciones contra el store por colección, operación y resultado",
	}, []string{"collection", "op", "status"})

	StoreOperationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docstore_store_operation_latency_ms",
		Help:    "Latencia de operaciones del store en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"collection", "op"})
)

// RegisterStore registers the store metrics on the given registry (or default if nil).
func RegisterStore(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{StoreOperations, StoreOperationLatency} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// ObserveStore registra contador y latencia de una operación del store.
func ObserveStore(collection, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperations.WithLabelValues(collection, op, status).Inc()
	StoreOperationLatency.WithLabelValues(collection, op).Observe(float64(time.Since(start).Milliseconds()))
}
