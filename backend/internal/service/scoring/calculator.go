package scoring

import (
	"sort"

	"adops-engine/backend/internal/domain/creative"

	"github.com/shopspring/decimal"
)

// 综合分权重固定，不对外开放配置。
const (
	weightCTR            = 0.4
	weightConversionRate = 0.4
	weightCPC            = 0.2
)

// CreativeScore 汇总单个创意（按广告名称分组）的表现与综合分。
type CreativeScore struct {
	AdName           string          `json:"ad_name"`
	Records          int             `json:"records"`
	TotalImpressions int64           `json:"total_impressions"`
	TotalClicks      int64           `json:"total_clicks"`
	TotalSpend       decimal.Decimal `json:"total_spend"`
	TotalConversions int64           `json:"total_conversions"`
	AvgCTR           float64         `json:"avg_ctr"`
	AvgCPC           float64         `json:"avg_cpc"`
	ConversionRate   float64         `json:"conversion_rate"`
	CPCScore         float64         `json:"cpc_score"`
	Score            float64         `json:"score"`
}

// Calculate 按广告名称聚合记录并计算综合分：
// score = 0.4*avgCtr + 0.4*conversionRate + 0.2*(1/avgCpc)。
// 只做求和，结果与输入顺序无关；所有分母为 0 的指标记为 0。
func Calculate(records []creative.PerformanceRecord) map[string]CreativeScore {
	scores := make(map[string]CreativeScore)
	for _, rec := range records {
		agg := scores[rec.AdName]
		agg.AdName = rec.AdName
		agg.Records++
		agg.TotalImpressions += rec.Impressions
		agg.TotalClicks += rec.Clicks
		agg.TotalSpend = agg.TotalSpend.Add(rec.Spend)
		agg.TotalConversions += rec.Conversions
		scores[rec.AdName] = agg
	}

	for name, agg := range scores {
		scores[name] = finalize(agg)
	}
	return scores
}

func finalize(agg CreativeScore) CreativeScore {
	if agg.TotalImpressions > 0 {
		agg.AvgCTR = float64(agg.TotalClicks) / float64(agg.TotalImpressions) * 100
	}
	if agg.TotalClicks > 0 {
		agg.AvgCPC = agg.TotalSpend.InexactFloat64() / float64(agg.TotalClicks)
		agg.ConversionRate = float64(agg.TotalConversions) / float64(agg.TotalClicks) * 100
	}
	if agg.AvgCPC != 0 {
		agg.CPCScore = 1 / agg.AvgCPC
	}
	agg.Score = weightCTR*agg.AvgCTR + weightConversionRate*agg.ConversionRate + weightCPC*agg.CPCScore
	return agg
}

// Best 返回综合分最高的创意；分数相同时取名称字典序最小者，保证结果确定。
func Best(scores map[string]CreativeScore) (CreativeScore, bool) {
	ranked := Ranked(scores)
	if len(ranked) == 0 {
		return CreativeScore{}, false
	}
	return ranked[0], true
}

// Worst 返回综合分最低的创意。
func Worst(scores map[string]CreativeScore) (CreativeScore, bool) {
	ranked := Ranked(scores)
	if len(ranked) == 0 {
		return CreativeScore{}, false
	}
	return ranked[len(ranked)-1], true
}

// Ranked 按综合分降序排列。
func Ranked(scores map[string]CreativeScore) []CreativeScore {
	out := make([]CreativeScore, 0, len(scores))
	for _, s := range scores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].AdName < out[j].AdName
	})
	return out
}
