/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-02 11:05:47
 * @FilePath: \adops-engine\backend\internal\infra\common\response.go
 * @LastEditTime: 2026-09-10 16:22:09
 */
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorCode 表示统一的错误码，便于客户端识别失败原因。
type ErrorCode string

const (
	ErrBadRequest        ErrorCode = "BAD_REQUEST"
	ErrUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrConflict          ErrorCode = "CONFLICT"
	ErrTooManyRequests   ErrorCode = "TOO_MANY_REQUESTS"
	ErrInternal          ErrorCode = "INTERNAL_ERROR"
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"
)

// Error 描述错误响应的统一结构。
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// Response 是所有接口返回的公共结构：{success, data?, error?}。
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// Success 以统一格式返回成功结果。
func Success(c *gin.Context, status int, data any, meta any) {
	if status == 0 {
		status = http.StatusOK
	}

	resp := Response{
		Success: true,
		Data:    data,
	}
	if meta != nil {
		resp.Meta = meta
	}

	c.JSON(status, resp)
}

// Created 返回 201 Created 的成功响应。
func Created(c *gin.Context, data any, meta any) {
	Success(c, http.StatusCreated, data, meta)
}

// NoContent 返回 204 响应且无 body。
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail 以统一格式返回错误结果。
func Fail(c *gin.Context, status int, code ErrorCode, message string, details any) {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}
	if details != nil {
		resp.Error.Details = details
	}

	c.JSON(status, resp)
}

// Internal 返回 500 与通用提示，具体错误只写入服务端日志。
func Internal(c *gin.Context, message string) {
	if message == "" {
		message = http.StatusText(http.StatusInternalServerError)
	}
	Fail(c, http.StatusInternalServerError, ErrInternal, message, nil)
}

// AbortFail 在中间件中返回错误并中止后续 handler。
func AbortFail(c *gin.Context, status int, code ErrorCode, message string) {
	Fail(c, status, code, message, nil)
	c.Abort()
}
