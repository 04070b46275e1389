package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"formbase/backend/common"

	"github.com/gin-gonic/gin"
)

// memoryRateLimiter is the default fixed-window limiter; it is process-local
// and resets on restart. When Redis is configured the window lives there
// instead, which survives restarts and is shared across replicas.
var memoryRateLimiter = common.NewInMemoryRateLimiter()

// rateLimitIdentity keys the window: the authenticated user id when known,
// otherwise a hashed client IP.
func rateLimitIdentity(c *gin.Context) string {
	if id, exists := c.Get("id"); exists {
		if userID, ok := id.(int64); ok && userID != 0 {
			return fmt.Sprintf("u%d", userID)
		}
	}
	return common.HashIdentity(c.ClientIP())
}

func redisRateLimiter(c *gin.Context, maxRequestNum int, durationSeconds int64, mark string) {
	key := "rateLimit:" + mark + ":" + rateLimitIdentity(c)
	ctx := c.Request.Context()

	count, err := common.RDB.Incr(ctx, key).Result()
	if err != nil {
		common.SysError(fmt.Sprintf("[RateLimit] Error incrementing key %s: %v", key, err))
		c.Status(http.StatusInternalServerError)
		c.Abort()
		return
	}
	if count == 1 {
		expireErr := common.RDB.Expire(context.Background(), key, time.Duration(durationSeconds)*time.Second).Err()
		if expireErr != nil {
			common.SysError(fmt.Sprintf("[RateLimit] Error setting expiration for key %s: %v", key, expireErr))
		}
	}
	if count > int64(maxRequestNum) {
		c.Status(http.StatusTooManyRequests)
		c.Abort()
		return
	}
}

func memoryRateLimitHandler(c *gin.Context, maxRequestNum int, durationSeconds int64, mark string) {
	key := mark + ":" + rateLimitIdentity(c)
	if !memoryRateLimiter.Request(key, maxRequestNum, durationSeconds) {
		c.Status(http.StatusTooManyRequests)
		c.Abort()
	}
}

func rateLimitFactory(maxRequestNum int, duration int64, mark string) func(c *gin.Context) {
	if common.RedisEnabled {
		return func(c *gin.Context) {
			redisRateLimiter(c, maxRequestNum, duration, mark)
		}
	}
	return func(c *gin.Context) {
		memoryRateLimitHandler(c, maxRequestNum, duration, mark)
	}
}

func GlobalWebRateLimit() func(c *gin.Context) {
	return rateLimitFactory(common.GlobalWebRateLimitNum, common.GlobalWebRateLimitDuration, "GW")
}

func GlobalAPIRateLimit() func(c *gin.Context) {
	return rateLimitFactory(common.GlobalApiRateLimitNum, common.GlobalApiRateLimitDuration, "GA")
}

func CriticalRateLimit() func(c *gin.Context) {
	return rateLimitFactory(common.CriticalRateLimitNum, common.CriticalRateLimitDuration, "CT")
}

func DownloadRateLimit() func(c *gin.Context) {
	return rateLimitFactory(common.DownloadRateLimitNum, common.DownloadRateLimitDuration, "DW")
}

func UploadRateLimit() func(c *gin.Context) {
	return rateLimitFactory(common.UploadRateLimitNum, common.UploadRateLimitDuration, "UP")
}
