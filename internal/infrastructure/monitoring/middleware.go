package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Route template keeps label cardinality bounded (/markers/:id)
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordHTTPRequest(method, path, status, time.Since(start))
	}
}

// Handler returns a gin handler exposing the metrics registry
func Handler(metrics *Metrics) gin.HandlerFunc {
	h := promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
