package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request. Server errors log at Error,
// client errors at Warn.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if identity, ok := Identity(c); ok {
			attrs = append(attrs, "user_id", identity.UserID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.ErrorContext(ctx, "request", attrs...)
		case status >= 400:
			log.WarnContext(ctx, "request", attrs...)
		default:
			log.InfoContext(ctx, "request", attrs...)
		}
	}
}
