package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		},
		[]string{"method", "path"},
	)

	// Catalog-specific metrics, set by the catalog and sync packages.
	CatalogSyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_sync_duration_seconds",
			Help:    "Duration of catalog sync operations",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	CatalogSyncErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_sync_errors_total",
			Help: "Total number of catalog sync errors",
		},
	)

	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_validation_cache_hits_total",
			Help: "Total number of validation cache hits",
		},
	)

	CatalogCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_validation_cache_misses_total",
			Help: "Total number of validation cache misses",
		},
	)

	CatalogEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries_total",
			Help: "Number of validated entries in the current index",
		},
	)

	CatalogFailuresTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_failures_total",
			Help: "Number of documents failing validation in the current index",
		},
	)

	CatalogCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_validation_cache_size",
			Help: "Current size of the validation cache",
		},
	)

	CatalogIndexValid = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_index_valid",
			Help: "Whether an index snapshot is available (1) or not (0)",
		},
	)
)

// Metrics returns a middleware that records Prometheus metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(ww.Status())
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		httpResponseSize.WithLabelValues(r.Method, path).Observe(float64(ww.BytesWritten()))
	})
}

// normalizePath maps dynamic path segments to static labels so entry paths
// do not explode metric cardinality.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/v1/entries/") {
		return "/v1/entries/{sourcePath}"
	}
	return path
}
