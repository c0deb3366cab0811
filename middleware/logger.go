package middleware

import (
	"time"

	"reservo/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger tags each request with an id and logs its outcome.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(utils.RequestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Header(utils.RequestIDHeader, reqID)

		c.Next()

		fields := []zap.Field{
			zap.String("requestId", reqID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", getClientIP(c)),
		}
		if actor, ok := ActorFrom(c); ok {
			fields = append(fields, zap.String("actor", actor.ID))
		}
		if c.Writer.Status() >= 500 {
			utils.GetLogger().Error("Request", fields...)
			return
		}
		utils.GetLogger().Info("Request", fields...)
	}
}
