// Package middleware provides HTTP middleware functions for request logging and processing.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/telecast-io/telecast/internal/logger"
)

// RequestLogger returns a Gin middleware that logs each request with
// zerolog. Server errors log at error level and client errors at warn, so
// a misbehaving player polling the resolution endpoint stands out without
// drowning the log in its 4xxs.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		var evt *zerolog.Event
		switch {
		case status >= 500:
			evt = logger.Log.Error()
		case status >= 400:
			evt = logger.Log.Warn()
		default:
			evt = logger.Log.Info()
		}

		evt = evt.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())

		if channelID := c.Param("id"); channelID != "" {
			evt = evt.Str("channel_id", channelID)
		}
		if len(c.Errors) > 0 {
			evt = evt.Strs("errors", c.Errors.Errors())
		}

		evt.Msg("HTTP request")
	}
}
