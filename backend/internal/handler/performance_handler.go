package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	domain "adops-engine/backend/internal/domain/creative"
	response "adops-engine/backend/internal/infra/common"
	appLogger "adops-engine/backend/internal/infra/logger"
	creativesvc "adops-engine/backend/internal/service/creative"
	perfsvc "adops-engine/backend/internal/service/performance"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPerformanceDays = 30
	maxPerformanceDays     = 365
)

// PerformanceIngestor 由 performance.Ingestor 实现。
type PerformanceIngestor interface {
	Ingest(ctx context.Context, input perfsvc.IngestInput) (perfsvc.IngestResult, error)
}

// PerformanceReader 由 repository.PerformanceRepository 实现。
type PerformanceReader interface {
	ListByAdSet(ctx context.Context, adSetID string, since time.Time) ([]domain.PerformanceRecord, error)
}

// PerformanceHandler 负责表现数据的采集与查询。
type PerformanceHandler struct {
	ingestor PerformanceIngestor
	records  PerformanceReader
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewPerformanceHandler 构造表现数据 Handler。
func NewPerformanceHandler(ingestor PerformanceIngestor, records PerformanceReader) *PerformanceHandler {
	return &PerformanceHandler{
		ingestor: ingestor,
		records:  records,
		logger:   appLogger.Component("performance.handler"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// IngestRequest 采集请求体。
type IngestRequest struct {
	DateRange string `json:"dateRange"`
	AdSetID   string `json:"adSetId"`
}

// Ingest 拉取广告账户的表现数据并入库。
func (h *PerformanceHandler) Ingest(c *gin.Context) {
	log := h.logger.With("operation", "ingest")
	var req IngestRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.ingestor.Ingest(c.Request.Context(), perfsvc.IngestInput{
		AdAccountID: c.Param("adAccountId"),
		DateRange:   req.DateRange,
		AdSetID:     req.AdSetID,
	})
	if err != nil {
		writeError(c, log.With("ad_account_id", c.Param("adAccountId")), err)
		return
	}
	response.Success(c, http.StatusOK, result, nil)
}

// List 返回广告组最近 days 天（默认 30）的表现记录。
func (h *PerformanceHandler) List(c *gin.Context) {
	log := h.logger.With("operation", "list")
	days := defaultPerformanceDays
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxPerformanceDays {
			response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "days must be between 1 and 365", nil)
			return
		}
		days = parsed
	}

	adSetID := strings.TrimSpace(c.Param("adSetId"))
	if adSetID == "" {
		writeError(c, log, creativesvc.ErrAdSetRequired)
		return
	}
	since := h.now().AddDate(0, 0, -days)
	records, err := h.records.ListByAdSet(c.Request.Context(), adSetID, since)
	if err != nil {
		writeError(c, log.With("ad_set_id", adSetID), err)
		return
	}
	response.Success(c, http.StatusOK, records, gin.H{"days": days, "count": len(records)})
}
