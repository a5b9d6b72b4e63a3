package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Logging writes a structured line for each HTTP request.
func Logging(logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("request_id", RequestIDFromContext(c)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", latency),
			}
			if uid, ok := c.Get(ContextKeyUserID).(string); ok && uid != "" {
				fields = append(fields, zap.String("user_id", uid))
			}

			switch status := c.Response().Status; {
			case status >= 500:
				logger.Error("request failed", append(fields, zap.Error(err))...)
			case status >= 400:
				logger.Warn("request rejected", fields...)
			default:
				logger.Info("request handled", fields...)
			}

			return err
		}
	}
}
