package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"adops-engine/backend/internal/domain/creative"
	"adops-engine/backend/internal/domain/platform"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&creative.PerformanceRecord{}, &creative.AdCreative{}, &creative.ABTest{}, &platform.Credential{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func TestCreativeRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreativeRepository(db)
	ctx := context.Background()

	generatedAt := time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)
	original := creative.AdCreative{
		AdSetID:            "adset-42",
		Headline:           "Buy Now",
		AdCopy:             "Great deal, limited stock",
		CallToAction:       "Shop Now",
		VisualDirection:    "Bright lifestyle photo",
		TargetAudience:     "Runners 25-40",
		Hypothesis:         "Urgency lifts CTR",
		Mode:               creative.ModeOptimization,
		Status:             creative.StatusDraft,
		Model:              "deepseek-chat",
		PerformanceContext: datatypes.JSON(`{"ad_name":"adset-42 hero","score":6.4}`),
		GeneratedAt:        generatedAt,
	}
	if err := repo.Create(ctx, &original); err != nil {
		t.Fatalf("create creative: %v", err)
	}

	items, err := repo.ListByAdSet(ctx, "adset-42")
	if err != nil {
		t.Fatalf("list creatives: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 creative, got %d", len(items))
	}
	got := items[0]
	if got.Headline != original.Headline || got.AdCopy != original.AdCopy || got.CallToAction != original.CallToAction ||
		got.VisualDirection != original.VisualDirection || got.TargetAudience != original.TargetAudience ||
		got.Hypothesis != original.Hypothesis || got.Mode != original.Mode || got.Status != original.Status ||
		got.Model != original.Model || got.AdSetID != original.AdSetID {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, original)
	}
	if string(got.PerformanceContext) != string(original.PerformanceContext) {
		t.Fatalf("performance context mismatch: %s", got.PerformanceContext)
	}
	if !got.GeneratedAt.Equal(generatedAt) {
		t.Fatalf("generated_at mismatch: %s", got.GeneratedAt)
	}

	others, err := repo.ListByAdSet(ctx, "adset-4")
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(others) != 0 {
		t.Fatalf("creatives must match ad set exactly, got %d", len(others))
	}
}

func TestPerformanceListByAdSetMatching(t *testing.T) {
	db := newTestDB(t)
	repo := NewPerformanceRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	records := []creative.PerformanceRecord{
		{AdSetID: "set_1", AdName: "Hero video", Impressions: 100, Spend: decimal.NewFromInt(5), RecordedAt: now},
		{AdName: "set_1 - carousel", Impressions: 200, Spend: decimal.NewFromInt(6), RecordedAt: now},
		{AdName: "set-1 - lookalike", Impressions: 300, RecordedAt: now},
		{AdSetID: "set_2", AdName: "set_1 mention but other set", Impressions: 400, RecordedAt: now},
		{AdSetID: "set_1", AdName: "old", Impressions: 500, RecordedAt: now.AddDate(0, 0, -40)},
	}
	if err := repo.CreateBatch(ctx, records); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	got, err := repo.ListByAdSet(ctx, "set_1", now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	names := map[string]bool{}
	for _, rec := range got {
		names[rec.AdName] = true
	}
	if len(got) != 2 || !names["Hero video"] || !names["set_1 - carousel"] {
		t.Fatalf("unexpected match set: %v", names)
	}
	for _, rec := range got {
		if rec.AdName == "Hero video" && !rec.Spend.Equal(decimal.NewFromInt(5)) {
			t.Fatalf("spend not preserved: %s", rec.Spend)
		}
	}
}

func TestPerformanceCreateBatchEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewPerformanceRepository(db)
	if err := repo.CreateBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
}

func TestABTestUpdateStatusGuardsExpected(t *testing.T) {
	db := newTestDB(t)
	creatives := NewCreativeRepository(db)
	tests := NewABTestRepository(db)
	ctx := context.Background()

	a := creative.AdCreative{AdSetID: "s", Headline: "A", Mode: creative.ModeExploration, Status: creative.StatusDraft, GeneratedAt: time.Now().UTC()}
	b := creative.AdCreative{AdSetID: "s", Headline: "B", Mode: creative.ModeExploration, Status: creative.StatusDraft, GeneratedAt: time.Now().UTC()}
	if err := creatives.Create(ctx, &a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := creatives.Create(ctx, &b); err != nil {
		t.Fatalf("create b: %v", err)
	}
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	test := creative.ABTest{
		AdSetID: "s", TestName: "t", VariationAID: a.ID, VariationBID: b.ID, DurationDays: 7,
		Budget: decimal.NewFromInt(100), Metrics: datatypes.JSON(`["ctr"]`),
		Status: creative.TestStatusActive, StartDate: start, EndDate: start.AddDate(0, 0, 7),
	}
	if err := tests.Create(ctx, &test); err != nil {
		t.Fatalf("create test: %v", err)
	}

	loaded, err := tests.FindByID(ctx, test.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if loaded.VariationA == nil || loaded.VariationA.Headline != "A" || loaded.VariationB == nil || loaded.VariationB.Headline != "B" {
		t.Fatalf("variations not preloaded: %+v", loaded)
	}

	expired, err := tests.ListExpiredActive(ctx, start.AddDate(0, 0, 8))
	if err != nil || len(expired) != 1 {
		t.Fatalf("expected one expired test, got %d (%v)", len(expired), err)
	}

	now := time.Now().UTC()
	ok, err := tests.UpdateStatus(ctx, test.ID, creative.TestStatusActive, creative.TestStatusCancelled, &now)
	if err != nil || !ok {
		t.Fatalf("first transition failed: ok=%v err=%v", ok, err)
	}
	ok, err = tests.UpdateStatus(ctx, test.ID, creative.TestStatusActive, creative.TestStatusCompleted, &now)
	if err != nil {
		t.Fatalf("second transition error: %v", err)
	}
	if ok {
		t.Fatalf("terminal status must not be overwritten")
	}
}

func TestPlatformCredentialUpsertAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlatformCredentialRepository(db)
	ctx := context.Background()

	first := platform.Credential{AdAccountID: "act_1", Provider: platform.ProviderMeta, AccessTokenCipher: []byte("one"), Status: platform.StatusEnabled}
	if err := repo.Upsert(ctx, &first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second := platform.Credential{AdAccountID: "act_1", Provider: platform.ProviderMeta, AccessTokenCipher: []byte("two"), Status: platform.StatusEnabled}
	if err := repo.Upsert(ctx, &second); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	stored, err := repo.FindByAdAccount(ctx, "act_1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if string(stored.AccessTokenCipher) != "two" {
		t.Fatalf("expected overwritten cipher, got %q", stored.AccessTokenCipher)
	}

	if err := repo.DeleteByAdAccount(ctx, "act_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteByAdAccount(ctx, "act_1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestPerformanceListByAdSetBlankID(t *testing.T) {
	db := newTestDB(t)
	repo := NewPerformanceRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	records := []creative.PerformanceRecord{
		{AdName: "Summer Sale - Carousel", Impressions: 100, RecordedAt: now},
		{AdName: "adset-9 hero", Impressions: 200, RecordedAt: now},
	}
	if err := repo.CreateBatch(ctx, records); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	for _, id := range []string{"", "   "} {
		got, err := repo.ListByAdSet(ctx, id, time.Time{})
		if err != nil {
			t.Fatalf("list %q: %v", id, err)
		}
		if len(got) != 0 {
			t.Fatalf("blank ad set id %q matched %d records", id, len(got))
		}
	}
}
