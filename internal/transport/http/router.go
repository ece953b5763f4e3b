package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hlane/httpqueue/internal/health"
	"github.com/hlane/httpqueue/internal/transport/http/handler"
	"github.com/hlane/httpqueue/internal/transport/http/middleware"
)

// NewRouter wires the admission surface: submit, fetch, liveness and
// metrics. There is no auth layer — submission is scoped by fingerprint,
// not by caller identity.
func NewRouter(jobHandler *handler.JobHandler, checker *health.Checker, httpMetrics *middleware.HTTPMetrics, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(httpMetrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, checker.Liveness(c.Request.Context()))
	})
	r.GET("/readyz", func(c *gin.Context) {
		result := checker.Readiness(c.Request.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	})
	r.GET("/metrics", gin.WrapH(metricsHandler))

	r.POST("/jobs", jobHandler.Create)
	r.GET("/jobs/:id", jobHandler.GetByID)

	return r
}
