package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/salesdesk/internal/observability/logger"
	"go.uber.org/zap"
)

// IntakeRateLimit throttles lead creation per client IP. Limiter failures fail open.
func (s *Server) IntakeRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.intakeLimiter.Enabled() {
			c.Next()
			return
		}

		res, err := s.intakeLimiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("intake rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
