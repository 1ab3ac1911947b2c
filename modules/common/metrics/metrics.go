package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Satura server metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "satura",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "satura",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 120},
		},
		[]string{"method", "route"},
	)

	// Upstream (fal.ai, Google, Supabase) calls
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "satura",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total upstream API calls",
		},
		[]string{"upstream", "operation", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "satura",
			Subsystem: "upstream",
			Name:      "duration_seconds",
			Help:      "Upstream API call duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"upstream", "operation"},
	)

	// Project download bytes
	DownloadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "satura",
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Total bytes streamed to clients from storage",
		},
		[]string{"content_type"},
	)
)

// RecordUpstream records one upstream call. status is "success" or "error".
func RecordUpstream(upstream, operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(upstream, operation, status).Inc()
	UpstreamDuration.WithLabelValues(upstream, operation).Observe(time.Since(started).Seconds())
}

// RecordDownload records bytes sent for a project download
func RecordDownload(contentType string, size int) {
	DownloadBytesTotal.WithLabelValues(contentType).Add(float64(size))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency per mux route template.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
