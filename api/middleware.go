package api

import (
	"log/slog"
	"time"

	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID keeps an incoming request id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func AccessLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("request_id", c.GetString("request_id")),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, logger.Err(c.Errors.Last()))
		}
		if c.Writer.Status() >= 500 {
			log.Error("request failed", attrs...)
			return
		}
		log.Info("request", attrs...)
	}
}
