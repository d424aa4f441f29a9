/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-06 23:10:00
 * @FilePath: \adops-engine\backend\internal\middleware\rate_limit_middleware.go
 * @LastEditTime: 2026-09-09 17:45:12
 */
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	response "adops-engine/backend/internal/infra/common"
	appLogger "adops-engine/backend/internal/infra/logger"
	"adops-engine/backend/internal/infra/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitConfig 生成类接口的固定窗口限流参数。
type RateLimitConfig struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// RateLimitMiddleware 按调用方（无鉴权时按 IP）限制会调用大模型的接口。
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	cfg     RateLimitConfig
	logger  *zap.SugaredLogger
}

// NewRateLimitMiddleware 构建限流中间件，Limit <= 0 时直接放行。
func NewRateLimitMiddleware(limiter ratelimit.Limiter, cfg RateLimitConfig) *RateLimitMiddleware {
	if cfg.Scope == "" {
		cfg.Scope = "generate"
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimitMiddleware{
		limiter: limiter,
		cfg:     cfg,
		logger:  appLogger.Component("middleware.ratelimit"),
	}
}

// Handle 返回 Gin 中间件，超限时返回 429 与 Retry-After。
func (m *RateLimitMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.limiter == nil || m.cfg.Limit <= 0 {
			c.Next()
			return
		}

		caller := Subject(c)
		if caller == "" || caller == "anonymous" {
			caller = "ip:" + strings.TrimSpace(c.ClientIP())
		}
		key := m.cfg.Scope + ":" + caller

		decision, err := m.limiter.Allow(c.Request.Context(), key, m.cfg.Limit, m.cfg.Window)
		if err != nil {
			// 限流后端不可用时放行，只记录日志
			m.logger.Warnw("rate limit check failed", "key", key, "error", err)
			c.Next()
			return
		}
		if decision.Remaining >= 0 {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}
		if !decision.Allowed {
			if decision.RetryAfter > 0 {
				seconds := int((decision.RetryAfter + time.Second - 1) / time.Second)
				c.Header("Retry-After", strconv.Itoa(seconds))
			}
			m.logger.Infow("request rate limited", "key", key, "retry_after", decision.RetryAfter)
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrTooManyRequests, "request rate limited")
			return
		}
		c.Next()
	}
}
