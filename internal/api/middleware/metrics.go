package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector records request counts and latencies per route.
type MetricsCollector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsCollector creates the HTTP collectors and registers them with reg.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reco",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reco",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(mc.requests, mc.duration)
	return mc
}

// Middleware returns middleware that counts requests and observes latency.
// Routes are labelled by their chi pattern so path parameters do not explode
// cardinality.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		mc.requests.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		mc.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
