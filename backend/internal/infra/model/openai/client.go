package openai

import (
	"context"
	"fmt"
	"strings"

	"adops-engine/backend/internal/infra/model"

	goopenai "github.com/sashabaranov/go-openai"
)

// Client 通过 go-openai 调用 OpenAI 兼容的 Chat Completion 接口。
type Client struct {
	sdk *goopenai.Client
}

// Option 自定义底层 SDK 配置。
type Option func(*goopenai.ClientConfig)

// WithBaseURL 指向自建网关或其它 OpenAI 兼容服务。
func WithBaseURL(baseURL string) Option {
	return func(cfg *goopenai.ClientConfig) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			cfg.BaseURL = trimmed
		}
	}
}

// NewClient 以 API Key 构造客户端。
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := goopenai.DefaultConfig(strings.TrimSpace(apiKey))
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{sdk: goopenai.NewClientWithConfig(cfg)}
}

// Complete 发起一次非流式补全。
func (c *Client) Complete(ctx context.Context, req model.CompletionRequest) (model.Completion, error) {
	if c == nil || c.sdk == nil {
		return model.Completion{}, fmt.Errorf("openai client is nil")
	}
	if err := req.Validate(); err != nil {
		return model.Completion{}, err
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxCompletionTokens = req.MaxTokens
	}

	resp, err := c.sdk.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return model.Completion{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Completion{}, fmt.Errorf("openai returned no choices")
	}

	out := model.Completion{
		Text:         resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
	}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &model.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}
