package handler

import (
	"context"
	"net/http"

	response "adops-engine/backend/internal/infra/common"
	appLogger "adops-engine/backend/internal/infra/logger"
	creativesvc "adops-engine/backend/internal/service/creative"
	optimizersvc "adops-engine/backend/internal/service/optimizer"
	recommendationsvc "adops-engine/backend/internal/service/recommendation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Optimizer 由 optimizer.Engine 实现。
type Optimizer interface {
	Optimize(ctx context.Context, input optimizersvc.OptimizeInput) (optimizersvc.Decision, error)
}

// Recommender 由 recommendation.Service 实现。
type Recommender interface {
	Get(ctx context.Context, adSetID string) (recommendationsvc.Result, error)
}

// OptimizationHandler 暴露探索/利用决策与优化建议。
type OptimizationHandler struct {
	optimizer   Optimizer
	recommender Recommender
	logger      *zap.SugaredLogger
}

// NewOptimizationHandler 构造优化相关 Handler。
func NewOptimizationHandler(optimizer Optimizer, recommender Recommender) *OptimizationHandler {
	return &OptimizationHandler{
		optimizer:   optimizer,
		recommender: recommender,
		logger:      appLogger.Component("optimization.handler"),
	}
}

// OptimizeRequest 未传的比率使用服务端默认值。
type OptimizeRequest struct {
	ExplorationRate *float64                   `json:"explorationRate"`
	LearningRate    *float64                   `json:"learningRate"`
	ProductContext  creativesvc.ProductContext `json:"productContext"`
}

// Optimize 为广告组执行一次探索/利用决策并生成创意。
func (h *OptimizationHandler) Optimize(c *gin.Context) {
	log := h.logger.With("operation", "optimize")
	var req OptimizeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	adSetID := c.Param("adSetId")
	decision, err := h.optimizer.Optimize(c.Request.Context(), optimizersvc.OptimizeInput{
		AdSetID:         adSetID,
		ExplorationRate: req.ExplorationRate,
		LearningRate:    req.LearningRate,
		Product:         req.ProductContext,
	})
	if err != nil {
		writeError(c, log.With("ad_set_id", adSetID), err)
		return
	}
	response.Success(c, http.StatusOK, decision, nil)
}

// Recommendations 返回广告组的优化建议、洞察与汇总。
func (h *OptimizationHandler) Recommendations(c *gin.Context) {
	log := h.logger.With("operation", "recommendations")
	adSetID := c.Param("adSetId")
	result, err := h.recommender.Get(c.Request.Context(), adSetID)
	if err != nil {
		writeError(c, log.With("ad_set_id", adSetID), err)
		return
	}
	response.Success(c, http.StatusOK, result, nil)
}
