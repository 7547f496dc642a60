package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/cinedesk/internal/ratelimit"
	"github.com/yoockh/cinedesk/internal/utils"
)

const MsgTooManyRequests = "Too many requests"

// RateLimit throttles by client IP. Limiter failures let the request through.
func RateLimit(l ratelimit.Limiter, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.WithError(err).WithField("op", "RateLimit").Warn("rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			wait := math.Ceil(time.Until(d.ResetAt).Seconds())
			c.Header("Retry-After", strconv.Itoa(max(int(wait), 1)))
			abort(c, utils.E(utils.CodeRateLimited, "RateLimit", MsgTooManyRequests, nil))
			return
		}
		c.Next()
	}
}
