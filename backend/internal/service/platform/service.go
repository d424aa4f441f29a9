/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-08 16:02:44
 * @FilePath: \adops-engine\backend\internal\service\platform\service.go
 * @LastEditTime: 2026-09-12 11:26:18
 */
package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "adops-engine/backend/internal/domain/platform"
	"adops-engine/backend/internal/infra/platform/meta"
	"adops-engine/backend/internal/service/performance"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCredentialNotFound    = errors.New("platform credential not found")
	ErrUnsupportedProvider   = errors.New("unsupported ad platform provider")
	ErrAccessTokenRequired   = errors.New("access token is required")
	ErrEncryptionUnavailable = errors.New("credential encryption is not configured")
)

// Store 凭据持久化。
type Store interface {
	Upsert(ctx context.Context, credential *domain.Credential) error
	FindByAdAccount(ctx context.Context, adAccountID string) (*domain.Credential, error)
	Update(ctx context.Context, credential *domain.Credential) error
	DeleteByAdAccount(ctx context.Context, adAccountID string) error
}

// Cipher 由 security.Cipher 实现。
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// InsightsClient 由 meta.Client 实现。
type InsightsClient interface {
	FetchAdInsights(ctx context.Context, accessToken, adAccountID, datePreset string) ([]meta.InsightRow, error)
}

// Credential 对外返回的凭据（令牌脱敏）。
type Credential struct {
	AdAccountID    string     `json:"adAccountId"`
	Provider       string     `json:"provider"`
	Status         string     `json:"status"`
	TokenHint      string     `json:"tokenHint"`
	LastVerifiedAt *time.Time `json:"lastVerifiedAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// SaveInput 写入凭据的参数。
type SaveInput struct {
	Provider    string
	AccessToken string
	Disabled    bool
}

// Service 管理广告账户的平台凭据，并据此决定采集使用真实数据源还是模拟数据。
type Service struct {
	store  Store
	cipher Cipher
	meta   InsightsClient
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewService cipher 为 nil 表示未配置主密钥：无法保存凭据，采集一律走模拟数据。
func NewService(store Store, cipher Cipher, metaClient InsightsClient, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		store:  store,
		cipher: cipher,
		meta:   metaClient,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Save 加密并保存广告账户的访问令牌，已存在时覆盖。
func (s *Service) Save(ctx context.Context, adAccountID string, input SaveInput) (Credential, error) {
	adAccountID = strings.TrimSpace(adAccountID)
	if adAccountID == "" {
		return Credential{}, performance.ErrAdAccountRequired
	}
	provider := strings.ToLower(strings.TrimSpace(input.Provider))
	if provider == "" {
		provider = domain.ProviderMeta
	}
	if provider != domain.ProviderMeta {
		return Credential{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, input.Provider)
	}
	token := strings.TrimSpace(input.AccessToken)
	if token == "" {
		return Credential{}, ErrAccessTokenRequired
	}
	if s.cipher == nil {
		return Credential{}, ErrEncryptionUnavailable
	}

	sealed, err := s.cipher.Encrypt([]byte(token))
	if err != nil {
		return Credential{}, fmt.Errorf("encrypt access token: %w", err)
	}
	status := domain.StatusEnabled
	if input.Disabled {
		status = domain.StatusDisabled
	}
	entity := &domain.Credential{
		AdAccountID:       adAccountID,
		Provider:          provider,
		AccessTokenCipher: sealed,
		Status:            status,
		UpdatedAt:         s.now(),
	}
	if err := s.store.Upsert(ctx, entity); err != nil {
		return Credential{}, fmt.Errorf("save platform credential: %w", err)
	}

	stored, err := s.store.FindByAdAccount(ctx, adAccountID)
	if err != nil {
		return Credential{}, fmt.Errorf("reload platform credential: %w", err)
	}
	s.logger.Infow("platform credential saved", "ad_account_id", adAccountID, "provider", provider, "status", status)
	return toCredential(*stored, token), nil
}

// Delete 删除广告账户的凭据。
func (s *Service) Delete(ctx context.Context, adAccountID string) error {
	if err := s.store.DeleteByAdAccount(ctx, strings.TrimSpace(adAccountID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCredentialNotFound
		}
		return fmt.Errorf("delete platform credential: %w", err)
	}
	return nil
}

// Resolve 实现 performance.SourceResolver：有可用凭据时返回 Meta 数据源，否则返回 ErrNoSource。
func (s *Service) Resolve(ctx context.Context, adAccountID string) (performance.Source, string, error) {
	if s.cipher == nil || s.meta == nil {
		return nil, "", performance.ErrNoSource
	}
	credential, err := s.store.FindByAdAccount(ctx, adAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", performance.ErrNoSource
		}
		return nil, "", fmt.Errorf("find platform credential: %w", err)
	}
	if credential.Status != domain.StatusEnabled {
		return nil, "", performance.ErrNoSource
	}
	token, err := s.cipher.Decrypt(credential.AccessTokenCipher)
	if err != nil {
		return nil, "", fmt.Errorf("decrypt access token: %w", err)
	}
	return &metaSource{service: s, credential: credential, token: string(token)}, credential.Provider, nil
}

// markVerified 拉取成功后刷新最近验证时间，失败只记日志。
func (s *Service) markVerified(ctx context.Context, credential *domain.Credential) {
	now := s.now()
	credential.LastVerifiedAt = &now
	if err := s.store.Update(ctx, credential); err != nil {
		s.logger.Warnw("update last_verified_at failed", "ad_account_id", credential.AdAccountID, "error", err)
	}
}

func toCredential(entity domain.Credential, token string) Credential {
	return Credential{
		AdAccountID:    entity.AdAccountID,
		Provider:       entity.Provider,
		Status:         entity.Status,
		TokenHint:      maskToken(token),
		LastVerifiedAt: entity.LastVerifiedAt,
		UpdatedAt:      entity.UpdatedAt,
	}
}

// maskToken 只保留末 4 位。
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
