package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RequestLogger logs every request through zerolog, at a level chosen by the response status
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		msg := "HTTP Request"
		if len(c.Errors) > 0 {
			msg = c.Errors.String()
		}

		code := c.Writer.Status()

		requestLogger := log.With().
			Int("status", code).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Str("latency", time.Since(startTime).String()).
			Str("user-agent", c.Request.UserAgent()).
			Logger()

		switch {
		case code >= http.StatusBadRequest && code < http.StatusInternalServerError:
			requestLogger.Warn().Msg(msg)
		case code >= http.StatusInternalServerError:
			requestLogger.Error().Msg(msg)
		default:
			requestLogger.Info().Msg(msg)
		}
	}
}
