/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-10 20:51:28
 * @FilePath: \adops-engine\backend\internal\bootstrap\bootstrap.go
 * @LastEditTime: 2026-09-14 16:07:52
 */
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"adops-engine/backend/internal/app"
	"adops-engine/backend/internal/config"
	"adops-engine/backend/internal/handler"
	"adops-engine/backend/internal/infra/metrics"
	"adops-engine/backend/internal/infra/platform/meta"
	"adops-engine/backend/internal/infra/ratelimit"
	"adops-engine/backend/internal/infra/security"
	"adops-engine/backend/internal/middleware"
	"adops-engine/backend/internal/repository"
	"adops-engine/backend/internal/server"
	abtestsvc "adops-engine/backend/internal/service/abtest"
	creativesvc "adops-engine/backend/internal/service/creative"
	modelsvc "adops-engine/backend/internal/service/model"
	optimizersvc "adops-engine/backend/internal/service/optimizer"
	perfsvc "adops-engine/backend/internal/service/performance"
	platformsvc "adops-engine/backend/internal/service/platform"
	recommendationsvc "adops-engine/backend/internal/service/recommendation"

	"go.uber.org/zap"
)

// Options 组装应用时的可选注入项，零值表示按环境配置构建。
type Options struct {
	Engine config.EngineConfig
	// TextGenerator 不为空时替代按 TEXTGEN_* 构建的模型路由。
	TextGenerator creativesvc.TextGenerator
	Random        optimizersvc.RandomSource
	Synthetic     perfsvc.Source
	Cipher        platformsvc.Cipher
	Insights      platformsvc.InsightsClient
}

// Services 应用内的业务服务，命令行工具直接复用。
type Services struct {
	Ingestor        *perfsvc.Ingestor
	Optimizer       *optimizersvc.Engine
	Generator       *creativesvc.Generator
	ABTests         *abtestsvc.Service
	Recommendations *recommendationsvc.Service
	Credentials     *platformsvc.Service
	Performance     *repository.PerformanceRepository
	Creatives       *repository.CreativeRepository
}

type Application struct {
	Resources *app.Resources
	Services  Services
	Router    http.Handler
}

// BuildServices 只装配业务服务，不创建 HTTP 路由。
func BuildServices(logger *zap.SugaredLogger, resources *app.Resources, opts Options) (Services, error) {
	if resources == nil || resources.DBGorm == nil {
		return Services{}, errors.New("database is required")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	metrics.MustRegister()
	cfg := opts.Engine
	db := resources.DBGorm

	perfRepo := repository.NewPerformanceRepository(db)
	creativeRepo := repository.NewCreativeRepository(db)
	abtestRepo := repository.NewABTestRepository(db)
	credentialRepo := repository.NewPlatformCredentialRepository(db)

	cipher := opts.Cipher
	if cipher == nil {
		c, err := security.NewCipherFromEnv()
		switch {
		case errors.Is(err, security.ErrMasterKeyMissing):
			logger.Warnw("platform credential master key not set; ingestion always uses synthetic data", "env", security.MasterKeyEnv)
		case err != nil:
			return Services{}, fmt.Errorf("init credential cipher: %w", err)
		default:
			cipher = c
		}
	}
	insights := opts.Insights
	if insights == nil {
		insights = meta.NewClient(meta.WithBaseURL(cfg.Meta.BaseURL), meta.WithVersion(cfg.Meta.Version))
	}
	credentials := platformsvc.NewService(credentialRepo, cipher, insights, logger.With("component", "platform.credentials"))

	synthetic := opts.Synthetic
	if synthetic == nil {
		synthetic = perfsvc.NewSyntheticSource(nil)
	}
	ingestor := perfsvc.NewIngestor(perfRepo, credentials, synthetic, logger.With("component", "performance.ingestor"))

	text := opts.TextGenerator
	model := cfg.TextGen.Model
	if text == nil {
		router, err := modelsvc.NewRouter(cfg.TextGen, logger.With("component", "model.router"))
		if err != nil {
			return Services{}, fmt.Errorf("init text generation: %w", err)
		}
		text = router
		model = router.Model()
		logger.Infow("text generation configured", "provider", router.Provider(), "model", model)
	}
	generator := creativesvc.NewGenerator(creativeRepo, text, creativesvc.KeywordParser{}, creativesvc.Config{
		Model:     model,
		MaxTokens: cfg.TextGen.MaxTokens,
	}, logger.With("component", "creative.generator"))

	engine := optimizersvc.NewEngine(perfRepo, generator, opts.Random, optimizersvc.Settings{
		ExplorationRate: cfg.ExplorationRate,
		LearningRate:    cfg.LearningRate,
		LookbackDays:    cfg.LookbackDays,
	}, logger.With("component", "optimizer"))

	return Services{
		Ingestor:        ingestor,
		Optimizer:       engine,
		Generator:       generator,
		ABTests:         abtestsvc.NewService(abtestRepo, generator, logger.With("component", "abtest")),
		Recommendations: recommendationsvc.NewService(perfRepo, cfg.LookbackDays),
		Credentials:     credentials,
		Performance:     perfRepo,
		Creatives:       creativeRepo,
	}, nil
}

// BuildApplication 装配服务、Handler、中间件与路由。
func BuildApplication(ctx context.Context, logger *zap.SugaredLogger, resources *app.Resources, opts Options) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	services, err := BuildServices(logger, resources, opts)
	if err != nil {
		return nil, err
	}
	cfg := opts.Engine

	var auth middleware.Authenticator
	if cfg.Auth.Enabled() {
		auth = middleware.NewAuthMiddleware(cfg.Auth.JWTSecret)
		logger.Infow("api bearer authentication enabled")
	} else {
		auth = middleware.NewOpenAuthMiddleware("")
		logger.Warnw("AUTH_JWT_SECRET not set; /api is unauthenticated")
	}

	limiter := ratelimit.New(resources.Redis, "")
	generateLimit := middleware.NewRateLimitMiddleware(limiter, middleware.RateLimitConfig{
		Scope:  "generate",
		Limit:  cfg.Limit.GeneratePerWindow,
		Window: cfg.Limit.Window,
	})

	var pinger handler.Pinger
	if sqlDB, err := resources.DBGorm.DB(); err == nil {
		pinger = sqlDB
	}

	router := server.NewRouter(server.RouterOptions{
		PerformanceHandler:  handler.NewPerformanceHandler(services.Ingestor, services.Performance),
		OptimizationHandler: handler.NewOptimizationHandler(services.Optimizer, services.Recommendations),
		CreativeHandler:     handler.NewCreativeHandler(services.Generator, services.Creatives),
		ABTestHandler:       handler.NewABTestHandler(services.ABTests),
		CredentialHandler:   handler.NewCredentialHandler(services.Credentials),
		HealthHandler:       handler.NewHealthHandler(pinger),
		AuthMW:              auth,
		GenerateLimit:       generateLimit,
		AllowedOrigins:      cfg.AllowedOrigins,
	})

	return &Application{
		Resources: resources,
		Services:  services,
		Router:    router,
	}, nil
}
