package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mtax/backend/internal/infrastructure/logger"
	"github.com/mtax/backend/internal/interfaces/http/dto"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

// ErrCodeRateLimited is returned once a client exhausts its quota
const ErrCodeRateLimited = "ERR_RATE_LIMITED"

// RateLimit limits requests per client IP
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return RateLimitByKey(l, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// RateLimitByKey limits requests per key. A failing store lets the request
// through: a gateway retry storm is preferable to dropped settlements.
func RateLimitByKey(l *limiter.Limiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		ctx := c.Request.Context()

		lc, err := l.Get(ctx, key)
		if err != nil {
			logger.FromContext(ctx).Error("Rate limit store unavailable",
				zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))

		if lc.Reached {
			logger.FromContext(ctx).Warn("Rate limit exceeded",
				zap.String("key", key), zap.Int64("limit", lc.Limit))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
