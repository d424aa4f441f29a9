/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-09 20:05:13
 * @FilePath: \adops-engine\backend\internal\service\optimizer\engine.go
 * @LastEditTime: 2026-09-12 09:47:51
 */
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	domain "adops-engine/backend/internal/domain/creative"
	"adops-engine/backend/internal/infra/metrics"
	creativesvc "adops-engine/backend/internal/service/creative"
	"adops-engine/backend/internal/service/scoring"

	"go.uber.org/zap"
)

const (
	ActionExplore = "explore"
	ActionExploit = "exploit"

	DefaultExplorationRate = 0.2
	DefaultLearningRate    = 0.1
	DefaultLookbackDays    = 30
)

var (
	// ErrInvalidRate explorationRate/learningRate 不在 [0,1]。
	ErrInvalidRate = errors.New("rate must be within [0, 1]")
)

// RandomSource 探索/利用抽签使用的随机源，测试可注入固定序列。
type RandomSource interface {
	Float64() float64
}

// lockedRand 让 *rand.Rand 可以在多个请求间并发使用。
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// NewRandomSource 基于 math/rand/v2 的默认随机源。
func NewRandomSource(seed1, seed2 uint64) RandomSource {
	return &lockedRand{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// RecordLister 读取广告组在 since 之后的表现记录。
type RecordLister interface {
	ListByAdSet(ctx context.Context, adSetID string, since time.Time) ([]domain.PerformanceRecord, error)
}

// VariationGenerator 由 creative.Generator 实现。
type VariationGenerator interface {
	Generate(ctx context.Context, adSetID, mode string, perf *domain.PerformanceContext, product creativesvc.ProductContext) (creativesvc.Variation, error)
}

// OptimizeInput 一次优化请求。
type OptimizeInput struct {
	AdSetID         string
	ExplorationRate *float64
	// LearningRate 目前只做校验与回显，不参与任何计算。
	LearningRate *float64
	Product      creativesvc.ProductContext
}

// Decision 优化结果。
type Decision struct {
	Action          string                     `json:"action"`
	Mode            string                     `json:"mode"`
	ColdStart       bool                       `json:"coldStart"`
	Draw            *float64                   `json:"draw,omitempty"`
	ExplorationRate float64                    `json:"explorationRate"`
	LearningRate    float64                    `json:"learningRate"`
	BestPerformer   *domain.PerformanceContext `json:"bestPerformer,omitempty"`
	Creative        *domain.AdCreative         `json:"creative"`
	Fields          creativesvc.Fields         `json:"fields"`
}

// Settings 请求未携带参数时使用的默认值。
type Settings struct {
	ExplorationRate float64
	LearningRate    float64
	LookbackDays    int
}

// DefaultSettings 0.2 / 0.1 / 30 天。
func DefaultSettings() Settings {
	return Settings{
		ExplorationRate: DefaultExplorationRate,
		LearningRate:    DefaultLearningRate,
		LookbackDays:    DefaultLookbackDays,
	}
}

// Engine 多臂老虎机式的探索/利用控制器。
type Engine struct {
	records   RecordLister
	generator VariationGenerator
	random    RandomSource
	settings  Settings
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewEngine random 为 nil 时使用随机种子的默认源；非法的默认比率回退为内置默认值。
func NewEngine(records RecordLister, generator VariationGenerator, random RandomSource, settings Settings, logger *zap.SugaredLogger) *Engine {
	if random == nil {
		random = NewRandomSource(rand.Uint64(), rand.Uint64())
	}
	if settings.LookbackDays <= 0 {
		settings.LookbackDays = DefaultLookbackDays
	}
	if _, err := resolveRate(&settings.ExplorationRate, 0, ""); err != nil {
		settings.ExplorationRate = DefaultExplorationRate
	}
	if _, err := resolveRate(&settings.LearningRate, 0, ""); err != nil {
		settings.LearningRate = DefaultLearningRate
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{
		records:   records,
		generator: generator,
		random:    random,
		settings:  settings,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Optimize 决定下一步探索还是利用，并生成对应的创意。
// 窗口内没有任何记录时一定探索，不抽签。
func (e *Engine) Optimize(ctx context.Context, input OptimizeInput) (Decision, error) {
	adSetID := strings.TrimSpace(input.AdSetID)
	if adSetID == "" {
		return Decision{}, creativesvc.ErrAdSetRequired
	}
	explorationRate, err := resolveRate(input.ExplorationRate, e.settings.ExplorationRate, "explorationRate")
	if err != nil {
		return Decision{}, err
	}
	learningRate, err := resolveRate(input.LearningRate, e.settings.LearningRate, "learningRate")
	if err != nil {
		return Decision{}, err
	}

	since := e.now().AddDate(0, 0, -e.settings.LookbackDays)
	records, err := e.records.ListByAdSet(ctx, adSetID, since)
	if err != nil {
		return Decision{}, fmt.Errorf("load performance records: %w", err)
	}

	decision := Decision{
		ExplorationRate: explorationRate,
		LearningRate:    learningRate,
	}

	var best scoring.CreativeScore
	hasBest := false
	if len(records) == 0 {
		decision.ColdStart = true
		decision.Action = ActionExplore
	} else {
		draw := e.random.Float64()
		decision.Draw = &draw
		best, hasBest = scoring.Best(scoring.Calculate(records))
		if draw < explorationRate || !hasBest {
			decision.Action = ActionExplore
		} else {
			decision.Action = ActionExploit
		}
	}

	var (
		variation creativesvc.Variation
		genErr    error
	)
	if decision.Action == ActionExploit {
		decision.Mode = domain.ModeOptimization
		decision.BestPerformer = &domain.PerformanceContext{AdName: best.AdName, Score: best.Score}
		variation, genErr = e.generator.Generate(ctx, adSetID, domain.ModeOptimization, decision.BestPerformer, input.Product)
	} else {
		decision.Mode = domain.ModeExploration
		variation, genErr = e.generator.Generate(ctx, adSetID, domain.ModeExploration, nil, input.Product)
	}
	if genErr != nil {
		return Decision{}, fmt.Errorf("%s: %w", decision.Action, genErr)
	}
	metrics.RecordDecision(decision.Action)

	decision.Creative = variation.Creative
	decision.Fields = variation.Fields
	e.logger.Infow("optimize decision",
		"ad_set_id", adSetID,
		"action", decision.Action,
		"cold_start", decision.ColdStart,
		"records", len(records),
		"creative_id", variation.Creative.ID,
	)
	return decision, nil
}

func resolveRate(value *float64, fallback float64, name string) (float64, error) {
	if value == nil {
		return fallback, nil
	}
	if math.IsNaN(*value) || *value < 0 || *value > 1 {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidRate, name, *value)
	}
	return *value, nil
}
