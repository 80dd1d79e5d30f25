package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campaign-import/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log.
const (
	BatchIDKey     = "batchId"
	DeployedKey    = "deployed"
	FailedCountKey = "failedCount"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		batchID := c.GetString(BatchIDKey)
		if batchID == "" {
			batchID = c.Param("id")
		}
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"batch_id":    batchID,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if v, ok := c.Get(DeployedKey); ok {
			fields["deployed"] = v
		}
		if v, ok := c.Get(FailedCountKey); ok {
			fields["failed"] = v
		}
		telemetry.Info("request.complete", fields)
	}
}
