package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/handlers"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// RequestLogger creates a gin middleware for logging requests using zap. The
// screening session resolved by SessionLoader is attached when present so
// per-session traffic can be correlated with pipeline and janitor logs.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
		}
		if v, ok := c.Get(handlers.SessionContextKey); ok {
			if screening, ok := v.(*models.ScreeningSession); ok {
				fields = append(fields, zap.Int("sessionID", screening.ID))
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("Server error", fields...)
		case status >= 400:
			log.Warn("Client error", fields...)
		default:
			// Frame batches arrive several times a second; keep successes at Debug.
			log.Debug("Request processed", fields...)
		}
	}
}
