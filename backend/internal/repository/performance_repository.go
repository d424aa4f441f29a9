/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-03 10:02:15
 * @FilePath: \adops-engine\backend\internal\repository\performance_repository.go
 * @LastEditTime: 2026-09-11 18:47:30
 */
package repository

import (
	"context"
	"strings"
	"time"

	"adops-engine/backend/internal/domain/creative"

	"gorm.io/gorm"
)

const performanceBatchSize = 200

// PerformanceRepository 封装 ad_performance_records 表，只提供追加与查询。
type PerformanceRepository struct {
	db *gorm.DB
}

// NewPerformanceRepository 构造仓储实例。
func NewPerformanceRepository(db *gorm.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// CreateBatch 批量写入一次采集得到的记录。
func (r *PerformanceRepository) CreateBatch(ctx context.Context, records []creative.PerformanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&records, performanceBatchSize).Error
}

// ListByAdSet 返回 since 之后属于该广告组的记录。
// 平台上报了 ad_set_id 时按外键匹配；历史或模拟数据没有 ad_set_id，退回到广告名称包含匹配。
// adSetID 为空时直接返回空结果，否则名称匹配会退化为全表。
func (r *PerformanceRepository) ListByAdSet(ctx context.Context, adSetID string, since time.Time) ([]creative.PerformanceRecord, error) {
	adSetID = strings.TrimSpace(adSetID)
	if adSetID == "" {
		return nil, nil
	}
	var records []creative.PerformanceRecord

	query := r.db.WithContext(ctx).
		Model(&creative.PerformanceRecord{}).
		Where("ad_set_id = ? OR (ad_set_id = '' AND ad_name LIKE ? ESCAPE '!')", adSetID, "%"+escapeLike(adSetID)+"%").
		Order("recorded_at DESC, id DESC")
	if !since.IsZero() {
		query = query.Where("recorded_at >= ?", since)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountByBatch 返回指定批次写入的记录数。
func (r *PerformanceRepository) CountByBatch(ctx context.Context, batchID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&creative.PerformanceRecord{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error
	return count, err
}

// escapeLike 转义 LIKE 通配符，使用 ! 作为转义字符以兼容 MySQL 与 SQLite。
func escapeLike(raw string) string {
	replacer := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return replacer.Replace(raw)
}
