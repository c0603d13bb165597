// Package metrics provides Prometheus metrics for the catalog and cache layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for the kind of cache entry.
const (
	KindList   = "list"
	KindEntity = "entity"
)

var (
	// CacheHitsTotal counts cache hits by entry kind.
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinerank_cache_hits_total",
		Help: "Total number of cache hits, by entry kind.",
	}, []string{"kind"})

	// CacheMissesTotal counts cache misses by entry kind.
	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinerank_cache_misses_total",
		Help: "Total number of cache misses, by entry kind.",
	}, []string{"kind"})

	// CacheErrorsTotal counts swallowed cache backend failures by operation.
	CacheErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinerank_cache_errors_total",
		Help: "Total number of cache backend failures, by operation (get/add/delete/decode).",
	}, []string{"op"})

	// RatingsAppliedTotal counts successfully committed ratings.
	RatingsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinerank_ratings_applied_total",
		Help: "Total number of ratings committed to the record store.",
	})

	// SubmissionsTotal counts movie submissions by outcome (created/duplicate).
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinerank_submissions_total",
		Help: "Total number of movie submissions, by outcome.",
	}, []string{"outcome"})
)

// HTTPRequestDuration records request latency by route pattern and status.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "cinerank_http_request_duration_seconds",
	Help:    "HTTP request latencies in seconds, by method, route pattern and status.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "path", "status"})
