/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-05 11:37:20
 * @FilePath: \adops-engine\backend\internal\service\model\service.go
 * @LastEditTime: 2026-09-12 15:09:44
 */
package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adops-engine/backend/internal/config"
	"adops-engine/backend/internal/infra/metrics"
	infra "adops-engine/backend/internal/infra/model"
	"adops-engine/backend/internal/infra/model/deepseek"
	"adops-engine/backend/internal/infra/model/openai"
	"adops-engine/backend/internal/infra/model/volcengine"
	creativesvc "adops-engine/backend/internal/service/creative"

	"go.uber.org/zap"
)

const (
	ProviderDeepSeek   = "deepseek"
	ProviderVolcengine = "volcengine"
	ProviderOpenAI     = "openai"

	systemPrompt = "You are a senior performance-marketing copywriter for an e-commerce brand. Answer only with the requested labelled fields."
)

var (
	ErrUnsupportedProvider   = errors.New("unsupported text generation provider")
	ErrProviderNotConfigured = errors.New("text generation provider not configured")
	ErrEmptyCompletion       = errors.New("text generation returned empty content")
)

// defaultModels 未配置 TEXTGEN_MODEL 时各供应商的默认型号。
var defaultModels = map[string]string{
	ProviderDeepSeek:   "deepseek-chat",
	ProviderVolcengine: "doubao-1-5-pro-32k-250115",
	ProviderOpenAI:     "gpt-4o-mini",
}

// Completer 由各供应商客户端实现。
type Completer interface {
	Complete(ctx context.Context, req infra.CompletionRequest) (infra.Completion, error)
}

// Router 把创意生成请求转发给当前配置的文本生成供应商，实现 creative.TextGenerator。
type Router struct {
	provider  string
	model     string
	maxTokens int
	timeout   time.Duration
	client    Completer
	logger    *zap.SugaredLogger
}

// NewRouter 按配置构造对应供应商的客户端。未填写 API Key 时仍返回 Router，调用时报 ErrProviderNotConfigured。
func NewRouter(cfg config.TextGenConfig, logger *zap.SugaredLogger) (*Router, error) {
	provider := normalizeProvider(cfg.Provider)
	if _, ok := defaultModels[provider]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}

	var client Completer
	if strings.TrimSpace(cfg.APIKey) != "" {
		client = buildClient(provider, cfg)
	}
	return NewRouterWithClient(provider, cfg.Model, cfg.MaxTokens, cfg.Timeout, client, logger), nil
}

// NewRouterWithClient 直接注入客户端，测试与命令行工具使用。
func NewRouterWithClient(provider, model string, maxTokens int, timeout time.Duration, client Completer, logger *zap.SugaredLogger) *Router {
	provider = normalizeProvider(provider)
	if strings.TrimSpace(model) == "" {
		model = defaultModels[provider]
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Router{
		provider:  provider,
		model:     strings.TrimSpace(model),
		maxTokens: maxTokens,
		timeout:   timeout,
		client:    client,
		logger:    logger,
	}
}

func buildClient(provider string, cfg config.TextGenConfig) Completer {
	switch provider {
	case ProviderVolcengine:
		return volcengine.NewClient(cfg.APIKey, volcengine.WithBaseURL(cfg.BaseURL))
	case ProviderOpenAI:
		return openai.NewClient(cfg.APIKey, openai.WithBaseURL(cfg.BaseURL))
	default:
		opts := []deepseek.Option{deepseek.WithHTTPClient(&http.Client{Timeout: cfg.Timeout})}
		if cfg.BaseURL != "" {
			opts = append(opts, deepseek.WithBaseURL(cfg.BaseURL))
		}
		return deepseek.NewClient(cfg.APIKey, opts...)
	}
}

// Provider 当前使用的供应商。
func (r *Router) Provider() string {
	return r.provider
}

// Model 默认模型。
func (r *Router) Model() string {
	return r.model
}

// Generate 实现 creative.TextGenerator，opts 中的空值回退到路由器配置。
func (r *Router) Generate(ctx context.Context, prompt string, opts creativesvc.GenerateOptions) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("%w: %s", ErrProviderNotConfigured, r.provider)
	}

	req := infra.CompletionRequest{
		Model:       strings.TrimSpace(opts.Model),
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if req.Model == "" {
		req.Model = r.model
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = r.maxTokens
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := r.client.Complete(ctx, req)
	elapsed := time.Since(start)

	var usage *metrics.TokenUsage
	if out.Usage != nil {
		usage = &metrics.TokenUsage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		}
	}
	metrics.ObserveModelCall(r.provider, elapsed, usage)

	if err != nil {
		r.logger.Warnw("text generation failed", "provider", r.provider, "model", req.Model, "duration", elapsed, "error", err)
		return "", fmt.Errorf("%s completion: %w", r.provider, err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", fmt.Errorf("%w: provider=%s", ErrEmptyCompletion, r.provider)
	}
	r.logger.Debugw("text generation finished", "provider", r.provider, "model", req.Model, "duration", elapsed, "finish_reason", out.FinishReason)
	return out.Text, nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
