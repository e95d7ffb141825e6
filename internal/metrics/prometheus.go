package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trove_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trove_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	marketplaceLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trove_marketplace_lookups_total",
			Help: "Total number of marketplace search lookups.",
		},
		[]string{"marketplace", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(marketplaceLookupsTotal)
}

// RecordRequest records metrics for a completed HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordMarketplaceLookup records the outcome of a single marketplace lookup.
func RecordMarketplaceLookup(marketplace string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	marketplaceLookupsTotal.WithLabelValues(marketplace, outcome).Inc()
}

func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// Handler returns the HTTP handler exporting Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
