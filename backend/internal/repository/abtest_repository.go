package repository

import (
	"context"
	"time"

	"adops-engine/backend/internal/domain/creative"

	"gorm.io/gorm"
)

// ABTestRepository 封装 ab_tests 表。
type ABTestRepository struct {
	db *gorm.DB
}

// NewABTestRepository 构造仓储实例。
func NewABTestRepository(db *gorm.DB) *ABTestRepository {
	return &ABTestRepository{db: db}
}

// Create 新增实验记录。
func (r *ABTestRepository) Create(ctx context.Context, test *creative.ABTest) error {
	return r.db.WithContext(ctx).Create(test).Error
}

// FindByID 查找实验并预加载两个变体。
func (r *ABTestRepository) FindByID(ctx context.Context, id uint) (*creative.ABTest, error) {
	var test creative.ABTest
	err := r.db.WithContext(ctx).
		Preload("VariationA").
		Preload("VariationB").
		First(&test, id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

// ListByAdSet 返回广告组下的全部实验，附带变体详情。
func (r *ABTestRepository) ListByAdSet(ctx context.Context, adSetID string) ([]creative.ABTest, error) {
	var tests []creative.ABTest
	err := r.db.WithContext(ctx).
		Preload("VariationA").
		Preload("VariationB").
		Where("ad_set_id = ?", adSetID).
		Order("start_date DESC, id DESC").
		Find(&tests).Error
	if err != nil {
		return nil, err
	}
	return tests, nil
}

// ListExpiredActive 返回已过结束时间但仍为 ACTIVE 的实验。
func (r *ABTestRepository) ListExpiredActive(ctx context.Context, now time.Time) ([]creative.ABTest, error) {
	var tests []creative.ABTest
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", creative.TestStatusActive, now).
		Order("end_date ASC, id ASC").
		Find(&tests).Error
	if err != nil {
		return nil, err
	}
	return tests, nil
}

// UpdateStatus 仅在当前状态仍为 expected 时写入新状态，避免并发覆盖终态。
func (r *ABTestRepository) UpdateStatus(ctx context.Context, id uint, expected, next string, completedAt *time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&creative.ABTest{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]any{
			"status":       next,
			"completed_at": completedAt,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
