/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-10 14:28:36
 * @FilePath: \adops-engine\backend\internal\service\abtest\service.go
 * @LastEditTime: 2026-09-13 17:05:12
 */
package abtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "adops-engine/backend/internal/domain/creative"
	"adops-engine/backend/internal/infra/metrics"
	creativesvc "adops-engine/backend/internal/service/creative"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	defaultDurationDays = 7
	// MaxDurationDays 实验最长持续天数。
	MaxDurationDays = 3650
)

var defaultMetrics = []string{"ctr", "cpc", "conversions"}

var (
	// ErrTestNotFound 实验不存在。
	ErrTestNotFound = errors.New("ab test not found")
	// ErrInvalidTransition 实验已结束，不能再完成或取消。
	ErrInvalidTransition = errors.New("invalid ab test status transition")
	// ErrInvalidDuration 持续天数为负或超过 MaxDurationDays。
	ErrInvalidDuration = errors.New("duration must be between 0 and 3650 days")
	// ErrInvalidBudget 预算为负。
	ErrInvalidBudget = errors.New("budget must not be negative")
)

// Store 实验的持久化。
type Store interface {
	Create(ctx context.Context, test *domain.ABTest) error
	FindByID(ctx context.Context, id uint) (*domain.ABTest, error)
	ListByAdSet(ctx context.Context, adSetID string) ([]domain.ABTest, error)
	ListExpiredActive(ctx context.Context, now time.Time) ([]domain.ABTest, error)
	UpdateStatus(ctx context.Context, id uint, expected, next string, completedAt *time.Time) (bool, error)
}

// VariationGenerator 由 creative.Generator 实现。
type VariationGenerator interface {
	Generate(ctx context.Context, adSetID, mode string, perf *domain.PerformanceContext, product creativesvc.ProductContext) (creativesvc.Variation, error)
}

// SetupInput 创建实验的参数，零值字段使用默认值。
type SetupInput struct {
	TestName     string
	DurationDays int
	Budget       decimal.Decimal
	Metrics      []string
	Product      creativesvc.ProductContext
}

// Service 管理 A/B 实验的创建与状态流转。
type Service struct {
	store     Store
	generator VariationGenerator
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewService 构造实验服务。
func NewService(store Store, generator VariationGenerator, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		store:     store,
		generator: generator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Setup 并发生成 A/B 两个探索创意后创建 ACTIVE 实验，结束时间 = 开始时间 + 天数*24h。
func (s *Service) Setup(ctx context.Context, adSetID string, input SetupInput) (*domain.ABTest, error) {
	adSetID = strings.TrimSpace(adSetID)
	if adSetID == "" {
		return nil, creativesvc.ErrAdSetRequired
	}
	duration := input.DurationDays
	if duration < 0 || duration > MaxDurationDays {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, duration)
	}
	if duration == 0 {
		duration = defaultDurationDays
	}
	if input.Budget.IsNegative() {
		return nil, ErrInvalidBudget
	}
	metricNames := normaliseMetrics(input.Metrics)
	metricsJSON, err := json.Marshal(metricNames)
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}

	start := s.now()
	name := strings.TrimSpace(input.TestName)
	if name == "" {
		name = "A/B Test " + start.Format("2006-01-02")
	}

	// A、B 两次生成互不依赖
	var variationA, variationB creativesvc.Variation
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		v, err := s.generator.Generate(groupCtx, adSetID, domain.ModeExploration, nil, input.Product)
		if err != nil {
			return fmt.Errorf("generate variation A: %w", err)
		}
		variationA = v
		return nil
	})
	group.Go(func() error {
		v, err := s.generator.Generate(groupCtx, adSetID, domain.ModeExploration, nil, input.Product)
		if err != nil {
			return fmt.Errorf("generate variation B: %w", err)
		}
		variationB = v
		return nil
	})
	// 任一变体失败时不写实验；另一个已落库的创意保留为 DRAFT，不做回滚
	if err := group.Wait(); err != nil {
		return nil, err
	}

	test := &domain.ABTest{
		AdSetID:      adSetID,
		TestName:     name,
		VariationAID: variationA.Creative.ID,
		VariationBID: variationB.Creative.ID,
		DurationDays: duration,
		Budget:       input.Budget,
		Metrics:      metricsJSON,
		Status:       domain.TestStatusActive,
		StartDate:    start,
		EndDate:      start.Add(time.Duration(duration) * 24 * time.Hour),
	}
	if err := s.store.Create(ctx, test); err != nil {
		return nil, fmt.Errorf("persist ab test: %w", err)
	}
	test.VariationA = variationA.Creative
	test.VariationB = variationB.Creative
	metrics.RecordABTestTransition(domain.TestStatusActive)

	s.logger.Infow("ab test created", "ab_test_id", test.ID, "ad_set_id", adSetID, "duration_days", duration)
	return test, nil
}

// Advance 纯函数：ACTIVE 且 now 晚于结束时间时转为 COMPLETED，返回是否发生变化。
func Advance(test domain.ABTest, now time.Time) (domain.ABTest, bool) {
	if test.Status != domain.TestStatusActive || !now.After(test.EndDate) {
		return test, false
	}
	completedAt := now
	test.Status = domain.TestStatusCompleted
	test.CompletedAt = &completedAt
	return test, true
}

// Complete 手动结束实验。
func (s *Service) Complete(ctx context.Context, id uint) (*domain.ABTest, error) {
	return s.transition(ctx, id, domain.TestStatusCompleted)
}

// Cancel 取消实验。
func (s *Service) Cancel(ctx context.Context, id uint) (*domain.ABTest, error) {
	return s.transition(ctx, id, domain.TestStatusCancelled)
}

func (s *Service) transition(ctx context.Context, id uint, next string) (*domain.ABTest, error) {
	test, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if test.IsTerminal() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, test.Status, next)
	}

	now := s.now()
	// 已过结束时间但还没被扫描到的实验先落成 COMPLETED，再按终态拒绝
	if advanced, changed := Advance(*test, now); changed {
		ok, err := s.store.UpdateStatus(ctx, id, domain.TestStatusActive, advanced.Status, advanced.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("advance ab test %d: %w", id, err)
		}
		if ok {
			metrics.RecordABTestTransition(advanced.Status)
		}
		return nil, fmt.Errorf("%w: test %d expired at %s", ErrInvalidTransition, id, test.EndDate.Format(time.RFC3339))
	}

	ok, err := s.store.UpdateStatus(ctx, id, domain.TestStatusActive, next, &now)
	if err != nil {
		return nil, fmt.Errorf("update ab test status: %w", err)
	}
	if !ok {
		// 读取之后被其它请求或过期扫描改成了终态
		return nil, fmt.Errorf("%w: test %d is no longer active", ErrInvalidTransition, id)
	}
	metrics.RecordABTestTransition(next)
	s.logger.Infow("ab test transitioned", "ab_test_id", id, "status", next)
	return s.find(ctx, id)
}

// CompleteExpired 把所有已过期的 ACTIVE 实验置为 COMPLETED，返回实际更新的数量。
func (s *Service) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.store.ListExpiredActive(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired ab tests: %w", err)
	}
	completed := 0
	for _, test := range expired {
		advanced, changed := Advance(test, now)
		if !changed {
			continue
		}
		ok, err := s.store.UpdateStatus(ctx, test.ID, domain.TestStatusActive, advanced.Status, advanced.CompletedAt)
		if err != nil {
			return completed, fmt.Errorf("complete ab test %d: %w", test.ID, err)
		}
		if ok {
			completed++
			metrics.RecordABTestTransition(advanced.Status)
		}
	}
	if completed > 0 {
		s.logger.Infow("expired ab tests completed", "count", completed)
	}
	return completed, nil
}

// List 返回广告组下的实验（含 A/B 创意），读取时顺带推进已过期的实验。
func (s *Service) List(ctx context.Context, adSetID string) ([]domain.ABTest, error) {
	adSetID = strings.TrimSpace(adSetID)
	if adSetID == "" {
		return nil, creativesvc.ErrAdSetRequired
	}
	tests, err := s.store.ListByAdSet(ctx, adSetID)
	if err != nil {
		return nil, fmt.Errorf("list ab tests: %w", err)
	}
	now := s.now()
	for idx := range tests {
		advanced, changed := Advance(tests[idx], now)
		if !changed {
			continue
		}
		ok, err := s.store.UpdateStatus(ctx, advanced.ID, domain.TestStatusActive, advanced.Status, advanced.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("advance ab test %d: %w", advanced.ID, err)
		}
		if ok {
			metrics.RecordABTestTransition(advanced.Status)
			tests[idx] = advanced
			continue
		}
		// 并发下已被其它请求改写，重新读取真实状态
		fresh, err := s.find(ctx, advanced.ID)
		if err != nil {
			return nil, err
		}
		tests[idx] = *fresh
	}
	return tests, nil
}

func (s *Service) find(ctx context.Context, id uint) (*domain.ABTest, error) {
	test, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("find ab test: %w", err)
	}
	return test, nil
}

func normaliseMetrics(input []string) []string {
	out := make([]string, 0, len(input))
	seen := make(map[string]struct{}, len(input))
	for _, raw := range input {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return append([]string(nil), defaultMetrics...)
	}
	return out
}
