package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request latency and status per route template. Scrapes of
// the metrics endpoint are not counted.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		// Raw paths carry ids; unknown routes share one label.
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
