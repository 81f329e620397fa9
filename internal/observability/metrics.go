// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// StoreOperationLatency records document store latency by operation and collection.
	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "threads_store_operation_latency_seconds",
		Help:    "Document store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// ThreadsCreated counts created threads, split into posts and replies.
	ThreadsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_created_total",
		Help: "Total number of threads created",
	}, []string{"kind"})

	// CascadeSize records how many threads a single delete removed.
	CascadeSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "threads_cascade_delete_size",
		Help:    "Number of threads removed by one cascade delete",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	// Revalidations counts revalidation signals by outcome.
	Revalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_revalidations_total",
		Help: "Total number of path revalidations by result",
	}, []string{"result"})

	// CacheLookups counts read cache lookups by result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_cache_lookups_total",
		Help: "Read cache lookups by result",
	}, []string{"result"})
)

// TrackStoreOp returns a function that records the latency of a store operation when called (e.g. defer).
func TrackStoreOp(operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreOperationLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}
