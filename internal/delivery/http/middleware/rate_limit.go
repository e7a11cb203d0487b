package middleware

import (
	"net/http"
	"strconv"
	"time"

	"fourwheels-backend/internal/delivery/http/response"
	"fourwheels-backend/pkg/apperror"
	"fourwheels-backend/pkg/logger"
	"fourwheels-backend/pkg/ratelimit"
	"fourwheels-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig is one fixed-window policy.
type RateLimitConfig struct {
	// Requests allowed per window
	Max    int
	Window time.Duration
	// Bucket key namespace, so two policies never share counters
	KeyPrefix string
	// Default: client IP
	KeyFunc func(*gin.Context) string
	Store   ratelimit.Store
	// Reject when the store is unreachable instead of letting the request through
	FailClosed bool
	SecLogger  *security.SecurityLogger
	// For tests
	Now func() time.Time
}

// ContactRateLimitConfig is the JSON endpoint policy: 30 requests per 10 minutes.
func ContactRateLimitConfig(store ratelimit.Store) RateLimitConfig {
	return RateLimitConfig{
		Max:       30,
		Window:    10 * time.Minute,
		KeyPrefix: "rl:contact:",
		Store:     store,
	}
}

// FormRateLimitConfig is the legacy form policy: 5 requests per hour.
func FormRateLimitConfig(store ratelimit.Store) RateLimitConfig {
	return RateLimitConfig{
		Max:       5,
		Window:    time.Hour,
		KeyPrefix: "rl:form:",
		Store:     store,
	}
}

// RateLimitMiddleware counts every request against the caller's bucket and
// answers 429 once the count passes Max within the window.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.SecLogger == nil {
		config.SecLogger = security.DefaultLogger()
	}

	return func(c *gin.Context) {
		now := config.Now()
		key := config.KeyPrefix + config.KeyFunc(c)

		res, err := config.Store.Hit(c.Request.Context(), key, config.Window, now)
		if err != nil {
			logger.Log.ErrorContext(c.Request.Context(), "Rate limit store failed", "error", err, "key_prefix", config.KeyPrefix)
			if config.FailClosed {
				response.Error(c, http.StatusServiceUnavailable, apperror.CodeServer, "")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Max))
		c.Header("X-RateLimit-Reset", res.ResetAt.UTC().Format(time.RFC3339))

		if res.Exceeded(config.Max) {
			retryAfter := res.RetryAfter(now)
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int((retryAfter+time.Second-1)/time.Second)))

			config.SecLogger.LogRateLimitTriggered(c.Request.Context(), requestMeta(c), c.FullPath(), retryAfter)

			tooMany := apperror.TooManyRequests()
			response.Error(c, tooMany.Status, tooMany.Code, tooMany.Message)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(config.Max-res.Count, 0)))
		c.Next()
	}
}

func requestMeta(c *gin.Context) security.RequestMeta {
	return security.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		RequestID: c.GetString("RequestID"),
	}
}
