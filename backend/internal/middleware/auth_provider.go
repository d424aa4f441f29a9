package middleware

import "github.com/gin-gonic/gin"

// Authenticator 抽象鉴权中间件，实现 Handle() 的结构体即可插入路由。
type Authenticator interface {
	Handle() gin.HandlerFunc
}

// SubjectKey 鉴权通过后写入 gin.Context 的调用方标识。
const SubjectKey = "subject"

// OpenAuthMiddleware 未配置 JWT 密钥时使用，注入固定调用方并放行。
type OpenAuthMiddleware struct {
	subject string
}

// NewOpenAuthMiddleware subject 为空时使用 "anonymous"。
func NewOpenAuthMiddleware(subject string) *OpenAuthMiddleware {
	if subject == "" {
		subject = "anonymous"
	}
	return &OpenAuthMiddleware{subject: subject}
}

// Handle 写入固定 subject 后继续。
func (m *OpenAuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(SubjectKey, m.subject)
		c.Next()
	}
}

// Subject 读取当前请求的调用方标识，不存在时返回空串。
func Subject(c *gin.Context) string {
	if v, ok := c.Get(SubjectKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
