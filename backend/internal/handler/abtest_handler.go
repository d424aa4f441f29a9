package handler

import (
	"context"
	"net/http"

	domain "adops-engine/backend/internal/domain/creative"
	response "adops-engine/backend/internal/infra/common"
	appLogger "adops-engine/backend/internal/infra/logger"
	abtestsvc "adops-engine/backend/internal/service/abtest"
	creativesvc "adops-engine/backend/internal/service/creative"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ABTestService 由 abtest.Service 实现。
type ABTestService interface {
	Setup(ctx context.Context, adSetID string, input abtestsvc.SetupInput) (*domain.ABTest, error)
	List(ctx context.Context, adSetID string) ([]domain.ABTest, error)
	Complete(ctx context.Context, id uint) (*domain.ABTest, error)
	Cancel(ctx context.Context, id uint) (*domain.ABTest, error)
}

// ABTestHandler 负责 A/B 实验接口。
type ABTestHandler struct {
	service ABTestService
	logger  *zap.SugaredLogger
}

// NewABTestHandler 构造 A/B 实验 Handler。
func NewABTestHandler(service ABTestService) *ABTestHandler {
	return &ABTestHandler{service: service, logger: appLogger.Component("abtest.handler")}
}

// CreateABTestRequest duration 单位为天，缺省 7；budget 可以是数字或字符串。
type CreateABTestRequest struct {
	TestName       string                     `json:"testName"`
	Duration       int                        `json:"duration"`
	Budget         decimal.NullDecimal        `json:"budget"`
	Metrics        []string                   `json:"metrics"`
	ProductContext creativesvc.ProductContext `json:"productContext"`
}

// Create 生成两条探索创意并创建实验。
func (h *ABTestHandler) Create(c *gin.Context) {
	log := h.logger.With("operation", "create")
	var req CreateABTestRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	input := abtestsvc.SetupInput{
		TestName:     req.TestName,
		DurationDays: req.Duration,
		Metrics:      req.Metrics,
		Product:      req.ProductContext,
	}
	if req.Budget.Valid {
		input.Budget = req.Budget.Decimal
	}

	adSetID := c.Param("adSetId")
	test, err := h.service.Setup(c.Request.Context(), adSetID, input)
	if err != nil {
		writeError(c, log.With("ad_set_id", adSetID), err)
		return
	}
	response.Created(c, test, nil)
}

// List 返回广告组的实验，已过期的 ACTIVE 实验会先被推进为 COMPLETED。
func (h *ABTestHandler) List(c *gin.Context) {
	log := h.logger.With("operation", "list")
	adSetID := c.Param("adSetId")
	tests, err := h.service.List(c.Request.Context(), adSetID)
	if err != nil {
		writeError(c, log.With("ad_set_id", adSetID), err)
		return
	}
	response.Success(c, http.StatusOK, tests, gin.H{"count": len(tests)})
}

// Complete 手动结束实验。
func (h *ABTestHandler) Complete(c *gin.Context) {
	h.transition(c, "complete", h.service.Complete)
}

// Cancel 取消实验。
func (h *ABTestHandler) Cancel(c *gin.Context) {
	h.transition(c, "cancel", h.service.Cancel)
}

func (h *ABTestHandler) transition(c *gin.Context, operation string, apply func(context.Context, uint) (*domain.ABTest, error)) {
	id, ok := parseUintParam(c, "testId")
	if !ok {
		return
	}
	test, err := apply(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger.With("operation", operation, "ab_test_id", id), err)
		return
	}
	response.Success(c, http.StatusOK, test, nil)
}
