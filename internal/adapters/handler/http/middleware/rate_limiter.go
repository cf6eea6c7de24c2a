package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/metrics"
)

const rateLimitPrefix = "kanso:rate_limit:"

// fixedWindow counts a hit and starts the window on the first one.
// Returns {count, pttl}.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

// RateLimiterMiddleware allows limit requests per client IP and window.
// When redis fails the request passes.
func RateLimiterMiddleware(rdb redis.Cmdable, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		res, err := fixedWindow.Run(c.Request.Context(), rdb, []string{rateLimitPrefix + ip}, window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			log.Printf("[RATE] redis error, limiter skipped: %v", err)
			c.Next()
			return
		}

		count := res[0]
		reset := time.Duration(res[1]) * time.Millisecond
		if reset < 0 {
			reset = window
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(int64(limit)-count, 0), 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

		if count > int64(limit) {
			metrics.RateLimited.Inc()
			retry := int(reset.Round(time.Second).Seconds())
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "too many requests",
				"retry_in_s": retry,
			})
			return
		}

		c.Next()
	}
}
