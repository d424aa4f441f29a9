package repository

import (
	"context"

	"adops-engine/backend/internal/domain/creative"

	"gorm.io/gorm"
)

// CreativeRepository 封装 ad_creatives 表，创意内容只增不改。
type CreativeRepository struct {
	db *gorm.DB
}

// NewCreativeRepository 构造仓储实例。
func NewCreativeRepository(db *gorm.DB) *CreativeRepository {
	return &CreativeRepository{db: db}
}

// Create 新增创意。
func (r *CreativeRepository) Create(ctx context.Context, entity *creative.AdCreative) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// FindByID 根据主键查找创意。
func (r *CreativeRepository) FindByID(ctx context.Context, id uint) (*creative.AdCreative, error) {
	var entity creative.AdCreative
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// ListByAdSet 按生成时间倒序返回广告组下的创意。
func (r *CreativeRepository) ListByAdSet(ctx context.Context, adSetID string) ([]creative.AdCreative, error) {
	var items []creative.AdCreative
	err := r.db.WithContext(ctx).
		Where("ad_set_id = ?", adSetID).
		Order("generated_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
