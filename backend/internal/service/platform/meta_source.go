package platform

import (
	"context"
	"strconv"
	"strings"
	"time"

	domain "adops-engine/backend/internal/domain/platform"
	"adops-engine/backend/internal/infra/platform/meta"
	"adops-engine/backend/internal/service/performance"

	"github.com/shopspring/decimal"
)

// metaSource 用解密后的令牌调用 insights 接口。
type metaSource struct {
	service    *Service
	credential *domain.Credential
	token      string
}

func (m *metaSource) Fetch(ctx context.Context, adAccountID, dateRange string) ([]performance.RawRecord, error) {
	rows, err := m.service.meta.FetchAdInsights(ctx, m.token, adAccountID, dateRange)
	if err != nil {
		return nil, err
	}
	m.service.markVerified(ctx, m.credential)

	out := make([]performance.RawRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertRow(row))
	}
	return out, nil
}

// convertRow 把字符串数值转换为 RawRecord，解析失败的字段按 0 处理；平台上报的比率原样保留。
func convertRow(row meta.InsightRow) performance.RawRecord {
	rec := performance.RawRecord{
		AdSetID:     row.AdSetID,
		AdName:      row.AdName,
		Impressions: parseInt(row.Impressions),
		Clicks:      parseInt(row.Clicks),
		Spend:       parseDecimal(row.Spend),
		Conversions: row.Conversions(),
		CTR:         parseOptionalFloat(row.CTR),
		CPC:         parseOptionalFloat(row.CPC),
		CPM:         parseOptionalFloat(row.CPM),
		Payload:     row.Raw,
	}
	if rec.AdName == "" {
		rec.AdName = row.AdID
	}
	if day, err := time.Parse("2006-01-02", row.DateStart); err == nil {
		rec.RecordedAt = day.UTC()
	}
	return rec
}

func parseInt(raw string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseOptionalFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
