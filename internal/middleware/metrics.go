package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propllia/backoffice/internal/telemetry"
)

// Metrics returns a Gin handler that records the request counter and latency
// histogram for every request.
//
// The path label is set from c.FullPath(), which returns the matched Gin
// route template (e.g. /properties/:id) rather than the raw URL, so
// user-supplied path segments never inflate label cardinality. Requests that
// match no registered route use the literal string "<no-route>".
//
// Register after gin.Recovery() and RequestID() so the response status set by
// error handlers is captured correctly.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		status := fmt.Sprintf("%d", c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
