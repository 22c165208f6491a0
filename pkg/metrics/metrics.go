// Package metrics provides Prometheus instrumentation for Better Drive.
//
// Wire it up once in the server bootstrap:
//
//	r.Use(metrics.Middleware())
//	r.HandleFunc("/metrics", metrics.Handler())
//
// Then scrape http://localhost:8080/metrics from Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────
// HTTP metrics
// ─────────────────────────────────────────────

var (
	// RequestDuration tracks how long each HTTP request takes,
	// broken down by method, route path, and status code.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "betterdrive",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all HTTP requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "betterdrive",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks how many requests are currently being served.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "betterdrive",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})
)

// ─────────────────────────────────────────────
// Drive metrics
// ─────────────────────────────────────────────

var (
	// FilesCreated counts committed file-row creations.
	FilesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "betterdrive",
		Subsystem: "drive",
		Name:      "files_created_total",
		Help:      "Total file records created.",
	})

	// FilesDeleted counts file rows removed, individually or by cascade.
	FilesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "betterdrive",
		Subsystem: "drive",
		Name:      "files_deleted_total",
		Help:      "Total file records deleted.",
	})

	// FoldersDeleted counts folder rows removed, including descendants.
	FoldersDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "betterdrive",
		Subsystem: "drive",
		Name:      "folders_deleted_total",
		Help:      "Total folder records deleted.",
	})

	// BytesFreed accumulates storage reclaimed by deletions.
	BytesFreed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "betterdrive",
		Subsystem: "drive",
		Name:      "bytes_freed_total",
		Help:      "Total bytes reclaimed from user quotas by deletions.",
	})

	// BlobDeleteFailures counts best-effort blob deletions that failed.
	// A rising counter means orphaned blobs are accumulating in the bucket.
	BlobDeleteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "betterdrive",
		Subsystem: "drive",
		Name:      "blob_delete_failures_total",
		Help:      "Blob-store delete calls that failed.",
	})

	// QuotaDrift reports |storage_used - Σ file sizes| per user as measured
	// by the consistency audit job. Non-zero is a corruption signal.
	QuotaDrift = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "betterdrive",
		Subsystem: "drive",
		Name:      "quota_drift_bytes",
		Help:      "Absolute difference between the quota ledger and actual file sizes.",
	}, []string{"user_id"})
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		FilesCreated,
		FilesDeleted,
		FoldersDeleted,
		BytesFreed,
		BlobDeleteFailures,
		QuotaDrift,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler returns the /metrics scrape endpoint.
func Handler() http.HandlerFunc {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP
}

// Register adds a custom collector to the shared registry.
func Register(c prometheus.Collector) {
	registry.MustRegister(c)
}

// statusWriter captures the response status for labelling.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records duration, count, and in-flight gauges per request.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			status := strconv.Itoa(sw.status)
			RequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		})
	}
}
