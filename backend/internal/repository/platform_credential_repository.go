package repository

import (
	"context"

	"adops-engine/backend/internal/domain/platform"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlatformCredentialRepository 封装 platform_credentials 表。
type PlatformCredentialRepository struct {
	db *gorm.DB
}

// NewPlatformCredentialRepository 构造仓储实例。
func NewPlatformCredentialRepository(db *gorm.DB) *PlatformCredentialRepository {
	return &PlatformCredentialRepository{db: db}
}

// Upsert 按广告账户写入或覆盖凭据。
func (r *PlatformCredentialRepository) Upsert(ctx context.Context, credential *platform.Credential) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ad_account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"provider", "access_token_cipher", "status", "updated_at"}),
		}).
		Create(credential).Error
}

// FindByAdAccount 查找广告账户的凭据。
func (r *PlatformCredentialRepository) FindByAdAccount(ctx context.Context, adAccountID string) (*platform.Credential, error) {
	var credential platform.Credential
	if err := r.db.WithContext(ctx).Where("ad_account_id = ?", adAccountID).First(&credential).Error; err != nil {
		return nil, err
	}
	return &credential, nil
}

// Update 保存凭据变更。
func (r *PlatformCredentialRepository) Update(ctx context.Context, credential *platform.Credential) error {
	return r.db.WithContext(ctx).Save(credential).Error
}

// DeleteByAdAccount 删除广告账户的凭据。
func (r *PlatformCredentialRepository) DeleteByAdAccount(ctx context.Context, adAccountID string) error {
	result := r.db.WithContext(ctx).Where("ad_account_id = ?", adAccountID).Delete(&platform.Credential{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
