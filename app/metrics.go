package app

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Engine queries take ~0.1s nominally; the upper buckets catch engines that overrun.
var engineBuckets = []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5}

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chessgpt_requests_total",
			Help: "HTTP requests by method, route and status class",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chessgpt_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: engineBuckets,
		},
		[]string{"method", "route"},
	)

	// AnalysesTotal counts analysis requests by terminal outcome:
	// "ok", "invalid_position", "no_move" or "error". Only the last three
	// reached the engine.
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chessgpt_analyses_total",
			Help: "Position analyses by outcome",
		},
		[]string{"outcome"},
	)

	EngineQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chessgpt_engine_query_duration_seconds",
			Help:    "Time spent waiting on the engine",
			Buckets: engineBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AnalysesTotal,
		EngineQueryDuration,
	)
}

// Metrics records request count and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status()/100) + "xx"

		RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
