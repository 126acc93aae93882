package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"docextract/internal/metrics"
)

// Metrics records request counts and latency, labelled by route template.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.RequestStarted()
		start := time.Now()
		c.Next()

		done(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
