/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-09 15:30:12
 * @FilePath: \adops-engine\backend\internal\server\router.go
 * @LastEditTime: 2026-09-14 10:05:44
 */
package server

import (
	"fmt"
	"strings"
	"time"

	"adops-engine/backend/internal/handler"
	"adops-engine/backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	PerformanceHandler  *handler.PerformanceHandler
	OptimizationHandler *handler.OptimizationHandler
	CreativeHandler     *handler.CreativeHandler
	ABTestHandler       *handler.ABTestHandler
	CredentialHandler   *handler.CredentialHandler
	HealthHandler       *handler.HealthHandler
	AuthMW              middleware.Authenticator
	GenerateLimit       *middleware.RateLimitMiddleware
	AllowedOrigins      []string
}

// NewRouter 构建应用的 Gin Engine，汇总所有 REST 接口与公共中间件配置。
func NewRouter(opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
		AllowOriginFunc:  originAllowed(opts.AllowedOrigins),
	}))
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
		Formatter: gin.LogFormatter(func(params gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s\" %d %s\n",
				params.ClientIP,
				params.TimeStamp.Format(time.RFC3339),
				params.Method,
				params.Path,
				params.StatusCode,
				params.Latency,
			)
		}),
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.HealthHandler != nil {
		r.GET("/healthz", opts.HealthHandler.Liveness)
	}

	api := r.Group("/api")
	if opts.AuthMW != nil {
		api.Use(opts.AuthMW.Handle())
	}

	// 会调用大模型的接口单独限流
	generate := []gin.HandlerFunc{}
	if opts.GenerateLimit != nil {
		generate = append(generate, opts.GenerateLimit.Handle())
	}
	withLimit := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, generate...), h)
	}

	accounts := api.Group("/ad-accounts/:adAccountId")
	if opts.PerformanceHandler != nil {
		accounts.POST("/performance/ingest", opts.PerformanceHandler.Ingest)
	}
	if opts.CredentialHandler != nil {
		accounts.PUT("/credentials", opts.CredentialHandler.Save)
		accounts.DELETE("/credentials", opts.CredentialHandler.Delete)
	}

	adSets := api.Group("/ad-sets/:adSetId")
	if opts.PerformanceHandler != nil {
		adSets.GET("/performance", opts.PerformanceHandler.List)
	}
	if opts.OptimizationHandler != nil {
		adSets.POST("/optimize", withLimit(opts.OptimizationHandler.Optimize)...)
		adSets.GET("/recommendations", opts.OptimizationHandler.Recommendations)
	}
	if opts.CreativeHandler != nil {
		adSets.POST("/variations", withLimit(opts.CreativeHandler.GenerateVariation)...)
		adSets.GET("/creatives", opts.CreativeHandler.List)
	}
	if opts.ABTestHandler != nil {
		adSets.POST("/ab-tests", withLimit(opts.ABTestHandler.Create)...)
		adSets.GET("/ab-tests", opts.ABTestHandler.List)

		tests := api.Group("/ab-tests/:testId")
		tests.POST("/complete", opts.ABTestHandler.Complete)
		tests.POST("/cancel", opts.ABTestHandler.Cancel)
	}

	return r
}

// originAllowed 未配置白名单时只放行本机来源。
func originAllowed(allowed []string) func(string) bool {
	return func(origin string) bool {
		if origin == "" {
			return false
		}
		for _, candidate := range allowed {
			if candidate == "*" || strings.EqualFold(candidate, origin) {
				return true
			}
		}
		return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
	}
}
