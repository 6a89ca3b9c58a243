package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"HealthAssist/pkg/logger"
)

const slowRequestThreshold = 500 * time.Millisecond

// RequestLogger logs every request with its status and duration. Server
// errors log at ERROR and slow requests at WARN; routes in streamingPaths
// never count as slow.
func RequestLogger(log *logger.Logger, streamingPaths ...string) gin.HandlerFunc {
	streaming := make(map[string]bool, len(streamingPaths))
	for _, p := range streamingPaths {
		streaming[p] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		kv := []any{
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"duration_ms", duration.Milliseconds(),
			"ip", c.ClientIP(),
		}
		if s := CurrentSession(c); s != nil {
			kv = append(kv, "userID", s.UserID)
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request failed", kv...)
		case len(c.Errors) > 0:
			log.Warn("request completed with errors", kv...)
		case duration > slowRequestThreshold && !streaming[route]:
			log.Warn("slow request", kv...)
		default:
			log.Debug("request completed", kv...)
		}
	}
}
