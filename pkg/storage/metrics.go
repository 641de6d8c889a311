package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperations tracks store calls by backend and operation
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seafood_store_operations_total",
			Help: "Total number of key/value store operations",
		},
		[]string{"backend", "operation"}, // "memory|redis|sqlite", "get|set|set_many|remove"
	)

	// StoreErrors tracks failed store calls (misses are not errors)
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seafood_store_errors_total",
			Help: "Total number of key/value store operation errors",
		},
		[]string{"backend", "operation"},
	)
)

func observe(backend, operation string, err error) {
	StoreOperations.WithLabelValues(backend, operation).Inc()
	if err != nil && err != ErrNotFound {
		StoreErrors.WithLabelValues(backend, operation).Inc()
	}
}
