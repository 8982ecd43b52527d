package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cache operations.
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_cache_hits_total",
		Help: "Total number of response cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_cache_misses_total",
		Help: "Total number of response cache misses",
	})

	cacheSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_cache_size_bytes",
		Help: "Bytes written to the response cache",
	})

	notModifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_not_modified_total",
		Help: "Total number of 304 Not Modified revalidations served from cache",
	})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_cache_errors_total",
		Help: "Total number of cache operation errors",
	}, []string{"operation"}) // "get", "set", "delete"
)
