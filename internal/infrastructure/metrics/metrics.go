package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Submit metrics
	SubmitsTotal   *prometheus.CounterVec
	SubmitDuration prometheus.Histogram
	NumberReissues prometheus.Counter

	// Number issuer metrics
	NumbersIssued *prometheus.CounterVec

	// Offline queue metrics
	OfflineSaves      prometheus.Counter
	OfflineQueueDepth *prometheus.GaugeVec

	// Remote gateway metrics
	RemoteRequests *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec

	// Catalog metrics
	CatalogRefreshes prometheus.Counter
	CatalogCacheHits *prometheus.CounterVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Submit metrics
		SubmitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finform_submits_total",
				Help: "Total document submits by type and outcome",
			},
			[]string{"doc_type", "outcome"},
		),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "finform_submit_duration_seconds",
			Help:    "Duration of document submit operations",
			Buckets: prometheus.DefBuckets,
		}),
		NumberReissues: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finform_number_reissues_total",
			Help: "Total provisional number reissues after a duplicate rejection",
		}),

		// Number issuer metrics
		NumbersIssued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finform_numbers_issued_total",
				Help: "Total document numbers issued by source",
			},
			[]string{"doc_type", "source"},
		),

		// Offline queue metrics
		OfflineSaves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finform_offline_saves_total",
			Help: "Total documents saved through the offline fallback",
		}),
		OfflineQueueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finform_offline_queue_depth",
				Help: "Documents currently queued for reconciliation",
			},
			[]string{"doc_type"},
		),

		// Remote gateway metrics
		RemoteRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finform_remote_requests_total",
				Help: "Total upstream ERP requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		RemoteDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finform_remote_duration_seconds",
				Help:    "Upstream ERP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// Catalog metrics
		CatalogRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finform_catalog_refreshes_total",
			Help: "Total catalog cache refreshes from upstream",
		}),
		CatalogCacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finform_catalog_cache_total",
				Help: "Catalog lookups by cache result",
			},
			[]string{"result"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finform_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finform_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "finform_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finform_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finform_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finform_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finform_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
