package recommendation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "adops-engine/backend/internal/domain/creative"
	creativesvc "adops-engine/backend/internal/service/creative"

	"github.com/shopspring/decimal"
)

type stubLister struct {
	records []domain.PerformanceRecord
	err     error
}

func (s stubLister) ListByAdSet(context.Context, string, time.Time) ([]domain.PerformanceRecord, error) {
	return s.records, s.err
}

func rec(name string, impressions, clicks, conversions int64, spend string, ctr, cpc float64) domain.PerformanceRecord {
	return domain.PerformanceRecord{
		AdName: name, Impressions: impressions, Clicks: clicks, Conversions: conversions,
		Spend: decimal.RequireFromString(spend), CTR: ctr, CPC: cpc,
	}
}

func TestEmptyRecordsGiveSingleRecommendation(t *testing.T) {
	res, err := NewService(stubLister{}, 30).Get(context.Background(), "set-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(res.Recommendations) != 1 || !strings.Contains(res.Recommendations[0], "exploration") {
		t.Fatalf("expected one exploration recommendation, got %v", res.Recommendations)
	}
	if res.Insights == nil || len(res.Insights) != 0 {
		t.Fatalf("insights must be an empty, non-nil slice")
	}
	if res.PerformanceSummary.RecordCount != 0 || !res.PerformanceSummary.TotalSpend.IsZero() {
		t.Fatalf("summary should be zero: %+v", res.PerformanceSummary)
	}
}

func TestThresholdRecommendations(t *testing.T) {
	cases := []struct {
		name    string
		records []domain.PerformanceRecord
		want    []string
	}{
		{
			name:    "low ctr and high cpc",
			records: []domain.PerformanceRecord{rec("a", 1000, 5, 0, "15", 0.5, 3.0)},
			want:    []string{"CTR", "CPC"},
		},
		{
			name:    "healthy",
			records: []domain.PerformanceRecord{rec("a", 1000, 50, 5, "25", 5, 0.5)},
			want:    []string{"healthy"},
		},
		{
			name: "simple average not weighted",
			records: []domain.PerformanceRecord{
				rec("a", 100000, 100, 0, "10", 0.1, 0.1),
				rec("b", 100, 5, 0, "1", 5.0, 0.2),
			},
			// 平均 CTR = 2.55，加权 CTR 会低于 1
			want: []string{"healthy"},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			res := Build(tc.records)
			if len(res.Recommendations) != len(tc.want) {
				t.Fatalf("expected %d recommendations, got %v", len(tc.want), res.Recommendations)
			}
			for i, fragment := range tc.want {
				if !strings.Contains(res.Recommendations[i], fragment) {
					t.Fatalf("recommendation %d %q should mention %q", i, res.Recommendations[i], fragment)
				}
			}
		})
	}
}

func TestInsightsBestAndWorst(t *testing.T) {
	single := Build([]domain.PerformanceRecord{rec("only", 1000, 50, 5, "25", 5, 0.5)})
	if len(single.Insights) != 1 || single.Insights[0].Type != InsightBestPerformer {
		t.Fatalf("single creative should only produce best insight: %+v", single.Insights)
	}

	res := Build([]domain.PerformanceRecord{
		rec("hero", 1000, 50, 5, "25", 5, 0.5),
		rec("hero", 1000, 50, 5, "25", 5, 0.5),
		rec("dud", 1000, 10, 0, "20", 1, 2),
		rec("mid", 1000, 30, 3, "30", 3, 1),
	})
	if len(res.Insights) != 2 {
		t.Fatalf("expected best and worst, got %+v", res.Insights)
	}
	if res.Insights[0].AdName != "hero" || res.Insights[1].AdName != "dud" {
		t.Fatalf("unexpected insights %+v", res.Insights)
	}
	sum := res.PerformanceSummary
	if sum.RecordCount != 4 || sum.CreativeCount != 3 || sum.TotalClicks != 140 || !sum.TotalSpend.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestGetPropagatesError(t *testing.T) {
	dbErr := errors.New("db down")
	if _, err := NewService(stubLister{err: dbErr}, 0).Get(context.Background(), "s"); !errors.Is(err, dbErr) {
		t.Fatalf("expected db error, got %v", err)
	}
}

type countingLister struct {
	calls int
}

func (c *countingLister) ListByAdSet(context.Context, string, time.Time) ([]domain.PerformanceRecord, error) {
	c.calls++
	return []domain.PerformanceRecord{rec("Any", 1000, 10, 1, "5", 1, 0.5)}, nil
}

func TestGetRequiresAdSet(t *testing.T) {
	lister := &countingLister{}
	if _, err := NewService(lister, 0).Get(context.Background(), " "); !errors.Is(err, creativesvc.ErrAdSetRequired) {
		t.Fatalf("expected ErrAdSetRequired, got %v", err)
	}
	if lister.calls != 0 {
		t.Fatalf("blank ad set must not query records")
	}
}
