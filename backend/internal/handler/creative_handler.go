package handler

import (
	"context"
	"net/http"
	"strings"

	domain "adops-engine/backend/internal/domain/creative"
	response "adops-engine/backend/internal/infra/common"
	appLogger "adops-engine/backend/internal/infra/logger"
	creativesvc "adops-engine/backend/internal/service/creative"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VariationGenerator 由 creative.Generator 实现。
type VariationGenerator interface {
	Generate(ctx context.Context, adSetID, mode string, perf *domain.PerformanceContext, product creativesvc.ProductContext) (creativesvc.Variation, error)
}

// CreativeLister 由 repository.CreativeRepository 实现。
type CreativeLister interface {
	ListByAdSet(ctx context.Context, adSetID string) ([]domain.AdCreative, error)
}

// CreativeHandler 负责创意生成与查询。
type CreativeHandler struct {
	generator VariationGenerator
	creatives CreativeLister
	logger    *zap.SugaredLogger
}

// NewCreativeHandler 构造创意 Handler。
func NewCreativeHandler(generator VariationGenerator, creatives CreativeLister) *CreativeHandler {
	return &CreativeHandler{
		generator: generator,
		creatives: creatives,
		logger:    appLogger.Component("creative.handler"),
	}
}

// VariationRequest mode 缺省为 exploration。
type VariationRequest struct {
	Mode           string                     `json:"mode"`
	ProductContext creativesvc.ProductContext `json:"productContext"`
}

// GenerateVariation 直接按指定模式生成一条创意，不经过决策引擎。
func (h *CreativeHandler) GenerateVariation(c *gin.Context) {
	log := h.logger.With("operation", "generate_variation")
	var req VariationRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = domain.ModeExploration
	}

	adSetID := c.Param("adSetId")
	variation, err := h.generator.Generate(c.Request.Context(), adSetID, mode, nil, req.ProductContext)
	if err != nil {
		writeError(c, log.With("ad_set_id", adSetID, "mode", mode), err)
		return
	}
	response.Created(c, variation, nil)
}

// List 返回广告组下的全部创意，最新在前。
func (h *CreativeHandler) List(c *gin.Context) {
	log := h.logger.With("operation", "list")
	adSetID := c.Param("adSetId")
	creatives, err := h.creatives.ListByAdSet(c.Request.Context(), adSetID)
	if err != nil {
		writeError(c, log.With("ad_set_id", adSetID), err)
		return
	}
	response.Success(c, http.StatusOK, creatives, gin.H{"count": len(creatives)})
}
