package recommendation

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "adops-engine/backend/internal/domain/creative"
	creativesvc "adops-engine/backend/internal/service/creative"
	"adops-engine/backend/internal/service/scoring"

	"github.com/shopspring/decimal"
)

const (
	lowCTRThreshold  = 1.0
	highCPCThreshold = 2.0

	InsightBestPerformer  = "best_performer"
	InsightWorstPerformer = "worst_performer"
)

// RecordLister 读取广告组在 since 之后的表现记录。
type RecordLister interface {
	ListByAdSet(ctx context.Context, adSetID string, since time.Time) ([]domain.PerformanceRecord, error)
}

// Insight 单条洞察。
type Insight struct {
	Type   string  `json:"type"`
	AdName string  `json:"adName"`
	Score  float64 `json:"score"`
	Action string  `json:"action"`
}

// Summary 表现汇总，AvgCTR/AvgCPC 为逐条记录的简单平均。
type Summary struct {
	TotalImpressions int64           `json:"totalImpressions"`
	TotalClicks      int64           `json:"totalClicks"`
	TotalSpend       decimal.Decimal `json:"totalSpend"`
	TotalConversions int64           `json:"totalConversions"`
	AvgCTR           float64         `json:"avgCtr"`
	AvgCPC           float64         `json:"avgCpc"`
	RecordCount      int             `json:"recordCount"`
	CreativeCount    int             `json:"creativeCount"`
}

// Result 每次请求实时计算，不落库。
type Result struct {
	Recommendations    []string  `json:"recommendations"`
	Insights           []Insight `json:"insights"`
	PerformanceSummary Summary   `json:"performanceSummary"`
}

// Service 根据表现记录给出文字建议。
type Service struct {
	records      RecordLister
	lookbackDays int
	now          func() time.Time
}

// NewService lookbackDays <= 0 时取 30 天。
func NewService(records RecordLister, lookbackDays int) *Service {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &Service{
		records:      records,
		lookbackDays: lookbackDays,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Get 返回广告组的优化建议。
func (s *Service) Get(ctx context.Context, adSetID string) (Result, error) {
	adSetID = strings.TrimSpace(adSetID)
	if adSetID == "" {
		return Result{}, creativesvc.ErrAdSetRequired
	}
	since := s.now().AddDate(0, 0, -s.lookbackDays)
	records, err := s.records.ListByAdSet(ctx, adSetID, since)
	if err != nil {
		return Result{}, fmt.Errorf("load performance records: %w", err)
	}
	return Build(records), nil
}

// Build 纯函数，便于命令行与测试复用。
func Build(records []domain.PerformanceRecord) Result {
	if len(records) == 0 {
		return Result{
			Recommendations: []string{
				"No performance data yet: start in exploration mode to generate and test new creative variations.",
			},
			Insights:           []Insight{},
			PerformanceSummary: Summary{TotalSpend: decimal.Zero},
		}
	}

	summary := Summary{TotalSpend: decimal.Zero, RecordCount: len(records)}
	var ctrSum, cpcSum float64
	for _, rec := range records {
		summary.TotalImpressions += rec.Impressions
		summary.TotalClicks += rec.Clicks
		summary.TotalSpend = summary.TotalSpend.Add(rec.Spend)
		summary.TotalConversions += rec.Conversions
		ctrSum += rec.CTR
		cpcSum += rec.CPC
	}
	summary.AvgCTR = ctrSum / float64(len(records))
	summary.AvgCPC = cpcSum / float64(len(records))

	scores := scoring.Calculate(records)
	summary.CreativeCount = len(scores)

	var recs []string
	if summary.AvgCTR < lowCTRThreshold {
		recs = append(recs, fmt.Sprintf("Average CTR is %.2f%%, below %.1f%%: test stronger headlines and more eye-catching visuals.", summary.AvgCTR, lowCTRThreshold))
	}
	if summary.AvgCPC > highCPCThreshold {
		recs = append(recs, fmt.Sprintf("Average CPC is $%.2f, above $%.2f: refine audience targeting or shift budget to cheaper placements.", summary.AvgCPC, highCPCThreshold))
	}
	if len(recs) == 0 {
		recs = append(recs, "Performance is healthy: keep exploiting the best performer and explore occasionally.")
	}

	insights := make([]Insight, 0, 2)
	ranked := scoring.Ranked(scores)
	best := ranked[0]
	insights = append(insights, Insight{
		Type:   InsightBestPerformer,
		AdName: best.AdName,
		Score:  best.Score,
		Action: "Scale budget and use it as the seed for optimization variations.",
	})
	if len(ranked) > 1 {
		worst := ranked[len(ranked)-1]
		insights = append(insights, Insight{
			Type:   InsightWorstPerformer,
			AdName: worst.AdName,
			Score:  worst.Score,
			Action: "Pause or replace with a new exploration variation.",
		})
	}

	return Result{Recommendations: recs, Insights: insights, PerformanceSummary: summary}
}
