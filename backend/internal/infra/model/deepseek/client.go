package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adops-engine/backend/internal/infra/model"
)

const (
	defaultBaseURL = "https://api.deepseek.com/v1"
	defaultTimeout = 30 * time.Second
)

// Client 封装与 DeepSeek 服务的 HTTP 交互。
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option 用于自定义 Client 行为。
type Option func(*Client)

// WithBaseURL 设置 DeepSeek API 的自定义基础地址。
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithHTTPClient 允许传入调用方自定义的 http.Client。
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient 构造 DeepSeek 客户端，默认使用 30 秒超时。
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	return client
}

// APIError 封装 DeepSeek 返回的错误响应。
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

// Error 实现 error 接口。
func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	desc := e.Message
	if e.Code != "" {
		desc = fmt.Sprintf("%s (%s)", desc, e.Code)
	}
	if e.Type != "" {
		desc = fmt.Sprintf("%s [%s]", desc, e.Type)
	}
	return desc
}

// Complete 调用 /chat/completions 并返回第一条 choice 的文本。
func (c *Client) Complete(ctx context.Context, req model.CompletionRequest) (model.Completion, error) {
	if c == nil {
		return model.Completion{}, fmt.Errorf("deepseek client is nil")
	}
	if err := req.Validate(); err != nil {
		return model.Completion{}, err
	}

	messages := make([]ChatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return model.Completion{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return model.Completion{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.Completion{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Completion{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return model.Completion{}, parseAPIError(resp.StatusCode, rawBody)
	}

	var decoded chatCompletionResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return model.Completion{}, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return model.Completion{}, fmt.Errorf("deepseek returned no choices")
	}

	out := model.Completion{
		Text:         decoded.Choices[0].Message.Content,
		Model:        decoded.Model,
		FinishReason: decoded.Choices[0].FinishReason,
	}
	if decoded.Usage != nil {
		out.Usage = &model.Usage{
			PromptTokens:     decoded.Usage.PromptTokens,
			CompletionTokens: decoded.Usage.CompletionTokens,
			TotalTokens:      decoded.Usage.TotalTokens,
		}
	}
	return out, nil
}

func parseAPIError(status int, payload []byte) error {
	var env struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if len(payload) == 0 || json.Unmarshal(payload, &env) != nil || env.Error.Message == "" {
		return &APIError{
			StatusCode: status,
			Message:    fmt.Sprintf("deepseek api error: status %d", status),
		}
	}
	return &APIError{
		StatusCode: status,
		Message:    env.Error.Message,
		Type:       env.Error.Type,
		Code:       env.Error.Code,
	}
}
