package volcengine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"adops-engine/backend/internal/infra/model"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
	"github.com/volcengine/volcengine-go-sdk/volcengine/volcengineerr"
)

const defaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// Client 封装与火山引擎 Ark Runtime 的交互逻辑。
type Client struct {
	apiKey  string
	baseURL string

	once sync.Once
	sdk  *arkruntime.Client
}

// Option 允许自定义 Client 行为。
type Option func(*Client)

// WithBaseURL 设置自定义 Base URL。
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed == "" {
			return
		}
		c.baseURL = strings.TrimRight(trimmed, "/")
	}
}

// NewClient 以 API Key 初始化火山引擎客户端，默认指向华北地域。
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) ensureSDK() *arkruntime.Client {
	c.once.Do(func() {
		c.sdk = arkruntime.NewClientWithApiKey(c.apiKey, arkruntime.WithBaseUrl(c.baseURL))
	})
	return c.sdk
}

// Complete 调用方舟 Chat Completion 并返回第一条 choice 的文本。
func (c *Client) Complete(ctx context.Context, req model.CompletionRequest) (model.Completion, error) {
	if c == nil {
		return model.Completion{}, fmt.Errorf("volcengine client is nil")
	}
	if c.apiKey == "" {
		return model.Completion{}, fmt.Errorf("volcengine api key is empty")
	}
	if err := req.Validate(); err != nil {
		return model.Completion{}, err
	}

	resp, err := c.ensureSDK().CreateChatCompletion(ctx, buildRequest(req))
	if err != nil {
		if rf, ok := err.(volcengineerr.RequestFailure); ok {
			return model.Completion{}, &APIError{
				StatusCode: rf.StatusCode(),
				Code:       rf.Code(),
				Message:    rf.Message(),
			}
		}
		return model.Completion{}, fmt.Errorf("volcengine chat completion: %w", err)
	}
	return convertResponse(resp)
}

func buildRequest(req model.CompletionRequest) arkmodel.CreateChatCompletionRequest {
	arkReq := arkmodel.CreateChatCompletionRequest{
		Model:    req.Model,
		Messages: make([]*arkmodel.ChatCompletionMessage, 0, 2),
	}
	if req.System != "" {
		arkReq.Messages = append(arkReq.Messages, textMessage(arkmodel.ChatMessageRoleSystem, req.System))
	}
	arkReq.Messages = append(arkReq.Messages, textMessage(arkmodel.ChatMessageRoleUser, req.Prompt))

	if req.MaxTokens > 0 {
		arkReq.MaxTokens = volcengine.Int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		arkReq.Temperature = volcengine.Float32(float32(req.Temperature))
	}
	return arkReq
}

func textMessage(role, content string) *arkmodel.ChatCompletionMessage {
	return &arkmodel.ChatCompletionMessage{
		Role: role,
		Content: &arkmodel.ChatCompletionMessageContent{
			StringValue: volcengine.String(content),
		},
	}
}

func convertResponse(resp arkmodel.ChatCompletionResponse) (model.Completion, error) {
	if len(resp.Choices) == 0 {
		return model.Completion{}, fmt.Errorf("volcengine returned no choices")
	}
	choice := resp.Choices[0]
	out := model.Completion{
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
	}
	if choice.Message.Content != nil && choice.Message.Content.StringValue != nil {
		out.Text = *choice.Message.Content.StringValue
	}
	if u := resp.Usage; u.TotalTokens != 0 || u.PromptTokens != 0 || u.CompletionTokens != 0 {
		out.Usage = &model.Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return out, nil
}
