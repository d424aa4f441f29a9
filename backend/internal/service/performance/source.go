package performance

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoSource 表示广告账户没有可用的平台数据源。
var ErrNoSource = errors.New("no platform source configured")

// RawRecord 平台返回并归一化后的单条表现数据。CTR/CPC/CPM 为 nil 时由采集器推算。
type RawRecord struct {
	AdSetID     string
	AdName      string
	Impressions int64
	Clicks      int64
	Spend       decimal.Decimal
	Conversions int64
	CTR         *float64
	CPC         *float64
	CPM         *float64
	RecordedAt  time.Time
	Payload     json.RawMessage
}

// Source 拉取广告账户在时间范围内的表现数据。
type Source interface {
	Fetch(ctx context.Context, adAccountID, dateRange string) ([]RawRecord, error)
}

// SourceResolver 为广告账户挑选数据源，未配置时返回 ErrNoSource。
type SourceResolver interface {
	Resolve(ctx context.Context, adAccountID string) (Source, string, error)
}

var syntheticAdNames = []string{
	"Summer Sale - Carousel",
	"Free Shipping - Static",
	"New Arrivals - Video",
	"Bundle Offer - Story",
	"Testimonial - Reel",
}

// SyntheticSource 平台不可用时生成看起来合理的模拟数据。
type SyntheticSource struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSyntheticSource rng 为 nil 时使用随机种子。
func NewSyntheticSource(rng *rand.Rand) *SyntheticSource {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &SyntheticSource{rng: rng, now: func() time.Time { return time.Now().UTC() }}
}

// Fetch 为每个候选广告名称生成一条记录：
// 展示 1,000–11,000，点击不超过展示的 10%，花费 $50–$550，转化不超过点击的 10%。
func (s *SyntheticSource) Fetch(_ context.Context, adAccountID, dateRange string) ([]RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordedAt := s.now()
	out := make([]RawRecord, 0, len(syntheticAdNames))
	for _, name := range syntheticAdNames {
		impressions := int64(1000 + s.rng.IntN(10001))
		clicks := int64(s.rng.IntN(int(impressions/10) + 1))
		spend := decimal.NewFromFloat(50 + s.rng.Float64()*500).Round(2)
		conversions := int64(s.rng.IntN(int(clicks/10) + 1))

		payload, _ := json.Marshal(map[string]any{
			"synthetic":     true,
			"ad_account_id": adAccountID,
			"date_range":    dateRange,
			"ad_name":       name,
		})
		out = append(out, RawRecord{
			AdName:      name,
			Impressions: impressions,
			Clicks:      clicks,
			Spend:       spend,
			Conversions: conversions,
			RecordedAt:  recordedAt,
			Payload:     payload,
		})
	}
	return out, nil
}
