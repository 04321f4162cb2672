package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_searches_total",
		Help: "Total number of nickname searches",
	}, []string{"result"})

	SearchMatches = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_search_matches",
		Help:    "Number of orders returned per search",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	RowCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "row_cache_hits_total",
		Help: "Total number of row table cache hits",
	})

	RowCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "row_cache_misses_total",
		Help: "Total number of row table cache misses",
	})

	RowSourceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "row_source_fetch_latency_seconds",
		Help:    "Latency of row source requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	RowSourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "row_source_failures_total",
		Help: "Total number of failed row source fetches",
	}, []string{"backend"})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "view_sessions_active",
		Help: "Number of live view sessions",
	})

	SessionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "view_sessions_dropped_total",
		Help: "Sessions dropped to make room for new ones",
	})

	SearchesSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_searches_superseded_total",
		Help: "Total number of searches discarded because a newer one started",
	})

	LikesAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "announcement_likes_accepted_total",
		Help: "Total number of likes accepted from visitors",
	})

	LikesForwardFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "announcement_likes_forward_failed_total",
		Help: "Total number of likes that could not be forwarded",
	}, []string{"stage"})

	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Total number of payment hand-offs generated",
	}, []string{"kind"})

	AdminEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_entries_total",
		Help: "Total number of orders keyed in through the admin console",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
