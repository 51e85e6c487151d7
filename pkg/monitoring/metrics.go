package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts total requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDuration measures request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	// AuthDenialsTotal counts requests rejected by the auth gate, by reason.
	AuthDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_auth_denials_total",
			Help: "Requests rejected by authentication or authorization",
		},
		[]string{"reason"},
	)

	// IngestRowsTotal counts spreadsheet rows normalized by bulk ingest.
	IngestRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_ingest_rows_total",
			Help: "Rows decoded and normalized by bulk ingest",
		},
	)

	// IngestBatchesTotal counts bulk ingest batches by result.
	IngestBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_ingest_batches_total",
			Help: "Bulk ingest batches by result",
		},
		[]string{"result"},
	)

	// ListCacheTotal counts listing cache lookups by outcome.
	ListCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_list_cache_total",
			Help: "Listing cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// GinMiddleware records request count and latency per route.
func GinMiddleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RequestsTotal.WithLabelValues(service, c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(service, c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
