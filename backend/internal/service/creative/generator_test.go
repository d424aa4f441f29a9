package creative

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	domain "adops-engine/backend/internal/domain/creative"
	"adops-engine/backend/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubText struct {
	reply   string
	err     error
	prompts []string
	opts    []GenerateOptions
}

func (s *stubText) Generate(_ context.Context, prompt string, opts GenerateOptions) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.opts = append(s.opts, opts)
	return s.reply, s.err
}

func newCreativeRepo(t *testing.T) (*repository.CreativeRepository, *gorm.DB) {
	t.Helper()
	dsn := "file:" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.AdCreative{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return repository.NewCreativeRepository(db), db
}

func TestGenerateExplorationPersistsDraft(t *testing.T) {
	repo, _ := newCreativeRepo(t)
	text := &stubText{reply: "Headline: Buy Now\nAd Copy: Great deal\nCTA: Shop"}
	gen := NewGenerator(repo, text, nil, Config{Model: "deepseek-chat", MaxTokens: 500}, nil)

	out, err := gen.Generate(context.Background(), "set-1", domain.ModeExploration, nil, ProductContext{ProductName: "Trail Shoe"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Creative.ID == 0 || out.Creative.Status != domain.StatusDraft || out.Creative.Mode != domain.ModeExploration {
		t.Fatalf("unexpected creative %+v", out.Creative)
	}
	if out.Fields.Headline != "Buy Now" || out.Creative.CallToAction != "Shop" {
		t.Fatalf("parsed fields not applied: %+v", out.Fields)
	}
	if len(out.Creative.PerformanceContext) != 0 {
		t.Fatalf("exploration creative should not carry performance context")
	}
	if text.opts[0].Temperature != 0.9 || text.opts[0].Model != "deepseek-chat" || text.opts[0].MaxTokens != 500 {
		t.Fatalf("unexpected options %+v", text.opts[0])
	}
	if !strings.Contains(text.prompts[0], "Try something new") || !strings.Contains(text.prompts[0], "Trail Shoe") {
		t.Fatalf("exploration prompt missing framing or product: %s", text.prompts[0])
	}

	stored, err := repo.ListByAdSet(context.Background(), "set-1")
	if err != nil || len(stored) != 1 {
		t.Fatalf("expected 1 stored creative, got %d err=%v", len(stored), err)
	}
	if stored[0].Headline != "Buy Now" || stored[0].AdCopy != "Great deal" {
		t.Fatalf("round trip mismatch: %+v", stored[0])
	}
}

func TestGenerateOptimizationEmbedsContext(t *testing.T) {
	repo, _ := newCreativeRepo(t)
	text := &stubText{reply: "Headline: Better"}
	gen := NewGenerator(repo, text, nil, Config{Model: "m"}, nil)

	perf := &domain.PerformanceContext{AdName: "Spring Sale", Score: 6.4}
	out, err := gen.Generate(context.Background(), "set-1", domain.ModeOptimization, perf, ProductContext{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text.opts[0].Temperature != 0.7 {
		t.Fatalf("expected optimization temperature 0.7, got %v", text.opts[0].Temperature)
	}
	if !strings.Contains(text.prompts[0], "Spring Sale") || !strings.Contains(text.prompts[0], "6.40") {
		t.Fatalf("optimization prompt should embed origin: %s", text.prompts[0])
	}
	var snapshot domain.PerformanceContext
	if err := json.Unmarshal(out.Creative.PerformanceContext, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot != *perf {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestGenerateFailureDoesNotPersist(t *testing.T) {
	repo, _ := newCreativeRepo(t)
	upstream := errors.New("upstream down")
	gen := NewGenerator(repo, &stubText{err: upstream}, nil, Config{}, nil)

	_, err := gen.Generate(context.Background(), "set-1", domain.ModeExploration, nil, ProductContext{})
	if !errors.Is(err, upstream) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
	stored, _ := repo.ListByAdSet(context.Background(), "set-1")
	if len(stored) != 0 {
		t.Fatalf("nothing should be persisted on failure, got %d", len(stored))
	}
}

func TestGenerateValidatesInput(t *testing.T) {
	repo, _ := newCreativeRepo(t)
	gen := NewGenerator(repo, &stubText{}, nil, Config{}, nil)

	if _, err := gen.Generate(context.Background(), "set-1", "sideways", nil, ProductContext{}); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if _, err := gen.Generate(context.Background(), "  ", domain.ModeExploration, nil, ProductContext{}); !errors.Is(err, ErrAdSetRequired) {
		t.Fatalf("expected ErrAdSetRequired, got %v", err)
	}
}

func TestBuildPromptSkipsEmptyProductFields(t *testing.T) {
	prompt := BuildPrompt("set-9", domain.ModeExploration, nil, ProductContext{})
	if strings.Contains(prompt, "Product context") {
		t.Fatalf("empty product context should be omitted: %s", prompt)
	}
	if !strings.Contains(prompt, "Headline:") || !strings.Contains(prompt, "Test Hypothesis:") {
		t.Fatalf("prompt should request labelled fields")
	}
}
