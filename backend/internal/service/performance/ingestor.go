/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-07 10:12:55
 * @FilePath: \adops-engine\backend\internal\service\performance\ingestor.go
 * @LastEditTime: 2026-09-11 18:52:03
 */
package performance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "adops-engine/backend/internal/domain/creative"
	"adops-engine/backend/internal/infra/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// DefaultDateRange 未指定时间范围时使用最近 30 天。
const DefaultDateRange = "last_30d"

var (
	// ErrInvalidDateRange 时间范围不在支持的预设内。
	ErrInvalidDateRange = errors.New("invalid date range")
	// ErrAdAccountRequired 缺少广告账户。
	ErrAdAccountRequired = errors.New("ad account id is required")
)

// 与 Meta insights 的 date_preset 取值保持一致。
var supportedDateRanges = map[string]struct{}{
	"today":      {},
	"yesterday":  {},
	"last_3d":    {},
	"last_7d":    {},
	"last_14d":   {},
	"last_28d":   {},
	"last_30d":   {},
	"last_90d":   {},
	"this_month": {},
	"last_month": {},
}

// Store 表现数据的持久化。
type Store interface {
	CreateBatch(ctx context.Context, records []domain.PerformanceRecord) error
}

// IngestInput 一次采集的参数。AdSetID 用于给没有上报广告组的记录打标。
type IngestInput struct {
	AdAccountID string
	DateRange   string
	AdSetID     string
}

// IngestResult 采集结果。
type IngestResult struct {
	Ingested int    `json:"ingested"`
	Source   string `json:"source"`
	BatchID  string `json:"batchId"`
}

// Ingestor 拉取平台数据（或模拟数据）并写入表现记录表。
type Ingestor struct {
	store     Store
	resolver  SourceResolver
	synthetic Source
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewIngestor resolver 可以为 nil，此时总是使用模拟数据。
func NewIngestor(store Store, resolver SourceResolver, synthetic Source, logger *zap.SugaredLogger) *Ingestor {
	if synthetic == nil {
		synthetic = NewSyntheticSource(nil)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Ingestor{
		store:     store,
		resolver:  resolver,
		synthetic: synthetic,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Ingest 执行一次采集。平台不可用或拉取失败时降级为模拟数据，只记 warn 日志不返回错误；
// 持久化失败则直接返回。
func (i *Ingestor) Ingest(ctx context.Context, input IngestInput) (IngestResult, error) {
	accountID := strings.TrimSpace(input.AdAccountID)
	if accountID == "" {
		return IngestResult{}, ErrAdAccountRequired
	}
	dateRange := strings.TrimSpace(input.DateRange)
	if dateRange == "" {
		dateRange = DefaultDateRange
	}
	if _, ok := supportedDateRanges[dateRange]; !ok {
		return IngestResult{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, dateRange)
	}

	raws, sourceName := i.fetch(ctx, accountID, dateRange)

	batchID := uuid.NewString()
	adSetID := strings.TrimSpace(input.AdSetID)
	records := make([]domain.PerformanceRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, i.toRecord(raw, accountID, adSetID, sourceName, batchID))
	}

	if err := i.store.CreateBatch(ctx, records); err != nil {
		return IngestResult{}, fmt.Errorf("persist performance records: %w", err)
	}
	metrics.RecordIngested(sourceName, len(records))
	i.logger.Infow("performance ingested", "ad_account_id", accountID, "source", sourceName, "batch_id", batchID, "records", len(records))

	return IngestResult{Ingested: len(records), Source: sourceName, BatchID: batchID}, nil
}

func (i *Ingestor) fetch(ctx context.Context, accountID, dateRange string) ([]RawRecord, string) {
	if i.resolver != nil {
		source, name, err := i.resolver.Resolve(ctx, accountID)
		switch {
		case err == nil && source != nil:
			raws, fetchErr := source.Fetch(ctx, accountID, dateRange)
			if fetchErr == nil {
				return raws, name
			}
			i.logger.Warnw("platform fetch failed, falling back to synthetic data", "ad_account_id", accountID, "source", name, "error", fetchErr)
		case errors.Is(err, ErrNoSource):
			i.logger.Warnw("no platform credentials, using synthetic data", "ad_account_id", accountID)
		case err != nil:
			i.logger.Warnw("resolve platform source failed, using synthetic data", "ad_account_id", accountID, "error", err)
		}
	}

	raws, err := i.synthetic.Fetch(ctx, accountID, dateRange)
	if err != nil {
		// 模拟源不应失败，失败时按空批次处理。
		i.logger.Errorw("synthetic source failed", "ad_account_id", accountID, "error", err)
		return nil, domain.SourceSynthetic
	}
	return raws, domain.SourceSynthetic
}

func (i *Ingestor) toRecord(raw RawRecord, accountID, adSetID, source, batchID string) domain.PerformanceRecord {
	rec := domain.PerformanceRecord{
		AdAccountID: accountID,
		AdSetID:     strings.TrimSpace(raw.AdSetID),
		AdName:      strings.TrimSpace(raw.AdName),
		Impressions: nonNegative(raw.Impressions),
		Clicks:      nonNegative(raw.Clicks),
		Spend:       raw.Spend,
		Conversions: nonNegative(raw.Conversions),
		Source:      source,
		BatchID:     batchID,
		RecordedAt:  raw.RecordedAt.UTC(),
	}
	if rec.AdSetID == "" {
		rec.AdSetID = adSetID
	}
	if rec.Spend.IsNegative() {
		rec.Spend = rec.Spend.Abs()
	}
	if raw.RecordedAt.IsZero() {
		rec.RecordedAt = i.now()
	}
	if len(raw.Payload) > 0 {
		rec.RawPayload = datatypes.JSON(raw.Payload)
	}

	spend := rec.Spend.InexactFloat64()
	rec.CTR = reportedOr(raw.CTR, func() float64 {
		if rec.Impressions == 0 {
			return 0
		}
		return float64(rec.Clicks) / float64(rec.Impressions) * 100
	})
	rec.CPC = reportedOr(raw.CPC, func() float64 {
		if rec.Clicks == 0 {
			return 0
		}
		return spend / float64(rec.Clicks)
	})
	rec.CPM = reportedOr(raw.CPM, func() float64 {
		if rec.Impressions == 0 {
			return 0
		}
		return spend * 1000 / float64(rec.Impressions)
	})
	return rec
}

func reportedOr(reported *float64, derive func() float64) float64 {
	if reported != nil {
		return *reported
	}
	return derive()
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
