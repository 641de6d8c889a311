package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh cache reads by dataset
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seafood_cache_hits_total",
			Help: "Total number of dataset cache hits",
		},
		[]string{"dataset"},
	)

	// CacheMisses tracks reads that found nothing usable
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seafood_cache_misses_total",
			Help: "Total number of dataset cache misses",
		},
		[]string{"dataset"},
	)

	// CacheExpired tracks reads that found an entry older than its TTL
	CacheExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seafood_cache_expired_total",
			Help: "Total number of dataset cache entries ignored because they were stale",
		},
		[]string{"dataset"},
	)

	// CacheWrites tracks successful dataset writes
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seafood_cache_writes_total",
			Help: "Total number of dataset cache writes",
		},
		[]string{"dataset"},
	)

	// CachePayloadBytes tracks the size of the last written payload
	CachePayloadBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "seafood_cache_payload_bytes",
			Help: "Size in bytes of the most recently cached payload",
		},
		[]string{"dataset"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seafood_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
