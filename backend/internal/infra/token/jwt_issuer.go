/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-12 20:40:41
 * @FilePath: \adops-engine\backend\internal\infra\token\jwt_issuer.go
 * @LastEditTime: 2026-09-12 23:05:40
 */
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTTL = 24 * time.Hour

// ErrSecretMissing 未配置 AUTH_JWT_SECRET 时无法签发。
var ErrSecretMissing = errors.New("jwt secret is empty")

// Issued 一次签发的结果。
type Issued struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// Issuer 为调用 /api 的服务或运维人员签发 HS256 访问令牌，与 AuthMiddleware 共用密钥。
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer 构造签发器。
func NewIssuer(secret string) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretMissing
	}
	return &Issuer{secret: []byte(secret), now: time.Now}, nil
}

// Issue 签发 sub=subject 的令牌，ttl <= 0 时有效期 24 小时。
func (i *Issuer) Issue(subject string, ttl time.Duration) (Issued, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Issued{}, errors.New("subject is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	now := i.now()
	expiresAt := now.Add(ttl)
	tokenID := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: signed, TokenID: tokenID, ExpiresAt: expiresAt}, nil
}
