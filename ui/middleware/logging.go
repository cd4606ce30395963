package middleware

import (
	"time"

	"epifig/internal"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request at debug level, and failures as warnings
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		elapsed := float64(time.Since(start).Nanoseconds()) / 1e6
		if status >= 400 {
			logger.Warn("%s %s -> %d (%.2fms)", c.Request.Method, c.Request.URL.Path, status, elapsed)
			return
		}
		logger.Debug("%s %s -> %d (%.2fms)", c.Request.Method, c.Request.URL.Path, status, elapsed)
	}
}
