package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cache operations.
var (
	// CacheHits counts cache hits by layer (memory, redis).
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Total cache hits by layer",
	}, []string{"layer"})

	// CacheMisses counts cache misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Total cache misses",
	})

	// CacheErrors counts cache operation errors by operation.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_errors_total",
		Help: "Total cache operation errors",
	}, []string{"operation"})
)
