/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-06 20:41:15
 * @FilePath: \adops-engine\backend\internal\middleware\auth_middleware.go
 * @LastEditTime: 2026-09-12 14:02:33
 */
package middleware

import (
	"net/http"
	"strings"

	response "adops-engine/backend/internal/infra/common"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware 基于共享密钥校验 HS256 Bearer Token。
type AuthMiddleware struct {
	secret []byte
	parser *jwt.Parser
}

// NewAuthMiddleware 创建鉴权中间件实例，注入 JWT 签名密钥。
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Handle 验证 Authorization 头，成功后把 claims 与 sub 写入上下文。
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "bearer ") {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrUnauthorized, "missing authorization header")
			return
		}

		claims := jwt.MapClaims{}
		token, err := m.parser.ParseWithClaims(strings.TrimSpace(authHeader[7:]), claims, func(*jwt.Token) (interface{}, error) {
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrUnauthorized, "invalid token")
			return
		}

		subject, _ := claims.GetSubject()
		if subject == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrUnauthorized, "invalid token claims")
			return
		}

		c.Set("claims", claims)
		c.Set(SubjectKey, subject)
		c.Next()
	}
}
