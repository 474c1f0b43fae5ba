package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	backendRedis  = "redis"
	backendMemory = "memory"
)

var (
	// CacheHits tracks cache hits by backend
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_hits_total",
			Help: "Total number of edge cache hits",
		},
		[]string{"backend"}, // "redis", "memory"
	)

	// CacheMisses tracks cache misses by backend
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_misses_total",
			Help: "Total number of edge cache misses",
		},
		[]string{"backend"},
	)

	// CacheStores tracks successful writes
	CacheStores = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_stores_total",
			Help: "Total number of responses written to the edge cache",
		},
		[]string{"backend"},
	)

	// CacheDeletes tracks explicit invalidations
	CacheDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_deletes_total",
			Help: "Total number of edge cache invalidations",
		},
		[]string{"backend"},
	)

	// CacheStoredBytes tracks the size of stored entries
	CacheStoredBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_cache_entry_bytes",
			Help:    "Size of entries written to the edge cache",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"backend"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_errors_total",
			Help: "Total number of edge cache operation errors",
		},
		[]string{"backend", "operation"}, // "match", "put", "delete"
	)
)
