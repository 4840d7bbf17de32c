package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"fedinbox/internal/infra/cache"
	"fedinbox/internal/utils"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware 按来源 IP 限流。联邦对端没有登录态，
// 能用的身份就是投递方的地址
func RateLimitMiddleware(rdb *cache.RedisCache, action string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate:limit:%s:%s", c.ClientIP(), action)

		allowed, err := rdb.AllowRequest(c, key, limit, window)
		if err != nil {
			// Redis 挂了不挡请求，只记一笔
			log.Printf("[RateLimit Error] Redis failed for key %s: %v", key, err)
			c.Next()
			return
		}

		if !allowed {
			utils.Error(c, http.StatusTooManyRequests, "操作太频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
