package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks request duration and counts for the transport layer,
// registered on its own registry — separate from the engine's Sink, since
// the server and worker are independent processes.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "httpqueue",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, path and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httpqueue",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests served, by method, path and status.",
		}, []string{"method", "path", "status"}),
	}
	reg.MustRegister(m.duration, m.total)
	return m
}

func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method
		duration := time.Since(start).Seconds()

		m.duration.WithLabelValues(method, path, status).Observe(duration)
		m.total.WithLabelValues(method, path, status).Inc()
	}
}
