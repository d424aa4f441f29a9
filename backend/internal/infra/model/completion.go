// Package model 定义各文本生成供应商客户端共享的请求/响应结构。
package model

import "fmt"

// CompletionRequest 单轮补全请求：一条 system 提示加一条用户 prompt。
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Usage token 消耗。
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion 是补全结果，Text 取第一条 choice 的内容。
type Completion struct {
	Text         string
	Model        string
	FinishReason string
	Usage        *Usage
}

// Validate 校验必要字段。
func (r CompletionRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("model 字段不能为空")
	}
	if r.Prompt == "" {
		return fmt.Errorf("prompt 不能为空")
	}
	return nil
}
