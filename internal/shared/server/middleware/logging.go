package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cvgen-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	GenerationIDKey = "generationId"
	SourceKey       = "source"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		generationID, _ := c.Get(GenerationIDKey)
		source, _ := c.Get(SourceKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":    RequestIDFromContext(c),
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"status":        c.Writer.Status(),
			"duration_ms":   float64(latency.Microseconds()) / 1000.0,
			"generation_id": generationID,
			"source":        source,
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
		})
	}
}
