// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	dbConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_connect_attempts_total",
			Help: "Database connect-and-bootstrap attempts, by result.",
		},
		[]string{"result"}, // success, connect_error, bootstrap_error
	)

	dbReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_ready",
			Help: "1 when the database connection and users table are ready.",
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_cache_lookups_total",
			Help: "User cache lookups, by result.",
		},
		[]string{"result"}, // hit, miss, tombstone, error
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func IncDBConnectAttempt(result string) {
	dbConnectAttempts.WithLabelValues(result).Inc()
}

func SetDBReady(ready bool) {
	if ready {
		dbReady.Set(1)
		return
	}
	dbReady.Set(0)
}

func IncCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}
