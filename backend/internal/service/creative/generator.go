/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-05 16:44:09
 * @FilePath: \adops-engine\backend\internal\service\creative\generator.go
 * @LastEditTime: 2026-09-12 10:31:26
 */
package creative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "adops-engine/backend/internal/domain/creative"
	"adops-engine/backend/internal/infra/metrics"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	// ErrInvalidMode 生成模式不是 exploration/optimization。
	ErrInvalidMode = errors.New("invalid generation mode")
	// ErrAdSetRequired 缺少广告组标识。
	ErrAdSetRequired = errors.New("ad set id is required")
)

// GenerateOptions 传给文本生成模型的采样参数。
type GenerateOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// TextGenerator 文本生成协作方。
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Store 创意持久化。
type Store interface {
	Create(ctx context.Context, entity *domain.AdCreative) error
}

// Variation 是一次生成的结果：已入库的创意与解析出的原始字段。
type Variation struct {
	Creative *domain.AdCreative `json:"creative"`
	Fields   Fields             `json:"fields"`
}

// Config 生成器参数。
type Config struct {
	Model     string
	MaxTokens int
}

// Generator 负责 提示词 → 模型 → 解析 → 入库。
type Generator struct {
	store  Store
	text   TextGenerator
	parser ResponseParser
	cfg    Config
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewGenerator 构造生成器，parser 为 nil 时使用 KeywordParser。
func NewGenerator(store Store, text TextGenerator, parser ResponseParser, cfg Config, logger *zap.SugaredLogger) *Generator {
	if parser == nil {
		parser = KeywordParser{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Generator{
		store:  store,
		text:   text,
		parser: parser,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Generate 为广告组生成一条新创意。模型调用失败时直接返回错误，不落库。
func (g *Generator) Generate(ctx context.Context, adSetID, mode string, perf *domain.PerformanceContext, product ProductContext) (Variation, error) {
	adSetID = strings.TrimSpace(adSetID)
	if adSetID == "" {
		return Variation{}, ErrAdSetRequired
	}
	if !domain.ValidMode(mode) {
		return Variation{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	prompt := BuildPrompt(adSetID, mode, perf, product)
	text, err := g.text.Generate(ctx, prompt, GenerateOptions{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: temperatureFor(mode),
	})
	if err != nil {
		metrics.RecordGeneration(mode, "error")
		return Variation{}, fmt.Errorf("generate creative text: %w", err)
	}

	fields := g.parser.Parse(text)
	entity := &domain.AdCreative{
		AdSetID:         adSetID,
		Headline:        fields.Headline,
		AdCopy:          fields.AdCopy,
		CallToAction:    fields.CallToAction,
		VisualDirection: fields.VisualDirection,
		TargetAudience:  fields.TargetAudience,
		Hypothesis:      fields.Hypothesis,
		Mode:            mode,
		Status:          domain.StatusDraft,
		Model:           g.cfg.Model,
		GeneratedAt:     g.now(),
	}
	if mode == domain.ModeOptimization && perf != nil {
		snapshot, err := json.Marshal(perf)
		if err != nil {
			return Variation{}, fmt.Errorf("encode performance context: %w", err)
		}
		entity.PerformanceContext = datatypes.JSON(snapshot)
	}

	if err := g.store.Create(ctx, entity); err != nil {
		metrics.RecordGeneration(mode, "error")
		return Variation{}, fmt.Errorf("persist creative: %w", err)
	}
	metrics.RecordGeneration(mode, "success")

	if fields.Headline == "" {
		g.logger.Warnw("generated text had no headline", "ad_set_id", adSetID, "creative_id", entity.ID)
	}
	return Variation{Creative: entity, Fields: fields}, nil
}
