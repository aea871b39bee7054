package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// accessLogMiddleware logs one structured line per request. Grounded on
// the chained zerolog call style used throughout the gateway example
// (log.Info().Str(...).Msg(...)) rather than gin's own plain-text
// logger, so triage pipeline logs compose with the rest of the
// deployment's structured logging.
func accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}
