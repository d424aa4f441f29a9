/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-03 09:18:40
 * @FilePath: \adops-engine\backend\internal\domain\creative\performance.go
 * @LastEditTime: 2026-09-03 09:18:40
 */
package creative

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	// SourceMeta 表示数据来自 Meta Graph API。
	SourceMeta = "meta"
	// SourceSynthetic 表示平台不可用时生成的模拟数据。
	SourceSynthetic = "synthetic"
)

// PerformanceRecord 对应一次采集得到的广告表现数据，只追加、不修改。
type PerformanceRecord struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                            // 主键 ID
	AdAccountID string          `gorm:"size:64;index" json:"ad_account_id"`                              // 广告账户
	AdSetID     string          `gorm:"size:128;index:idx_perf_adset_time,priority:1" json:"ad_set_id"`  // 平台上报的广告组，可能为空
	AdName      string          `gorm:"size:255;index" json:"ad_name"`                                   // 广告名称（松散匹配键）
	Impressions int64           `json:"impressions"`                                                     // 展示次数
	Clicks      int64           `json:"clicks"`                                                          // 点击次数
	Spend       decimal.Decimal `gorm:"type:decimal(14,4)" json:"spend"`                                 // 花费
	CTR         float64         `gorm:"column:ctr" json:"ctr"`                                           // 点击率（百分比）
	CPC         float64         `gorm:"column:cpc" json:"cpc"`                                           // 单次点击成本
	CPM         float64         `gorm:"column:cpm" json:"cpm"`                                           // 千次展示成本
	Conversions int64           `json:"conversions"`                                                     // 转化数
	Source      string          `gorm:"size:32" json:"source"`                                           // 数据来源
	BatchID     string          `gorm:"size:36;index" json:"batch_id"`                                   // 采集批次
	RawPayload  datatypes.JSON  `gorm:"type:json" json:"raw_payload,omitempty"`                          // 原始返回
	RecordedAt  time.Time       `gorm:"index:idx_perf_adset_time,priority:2" json:"recorded_at"`         // 记录时间
}

// TableName 指定数据库表名。
func (PerformanceRecord) TableName() string {
	return "ad_performance_records"
}
