package creative

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// ModeExploration 尝试全新方向的创意。
	ModeExploration = "exploration"
	// ModeOptimization 在已验证的高分创意上迭代。
	ModeOptimization = "optimization"

	// StatusDraft 为新生成创意的初始状态，发布流程不在本引擎内。
	StatusDraft = "DRAFT"
)

// AdCreative 表示一次生成得到的广告创意，内容创建后不可修改。
type AdCreative struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AdSetID            string         `gorm:"size:128;index" json:"ad_set_id"`
	Headline           string         `gorm:"type:text" json:"headline"`
	AdCopy             string         `gorm:"type:text" json:"ad_copy"`
	CallToAction       string         `gorm:"type:text" json:"call_to_action"`
	VisualDirection    string         `gorm:"type:text" json:"visual_direction"`
	TargetAudience     string         `gorm:"type:text" json:"target_audience"`
	Hypothesis         string         `gorm:"type:text" json:"hypothesis"`
	Mode               string         `gorm:"size:32" json:"mode"`
	Status             string         `gorm:"size:32" json:"status"`
	Model              string         `gorm:"size:128" json:"model,omitempty"`
	PerformanceContext datatypes.JSON `gorm:"type:json" json:"performance_context,omitempty"`
	GeneratedAt        time.Time      `gorm:"index" json:"generated_at"`
}

// TableName 指定数据库表名。
func (AdCreative) TableName() string {
	return "ad_creatives"
}

// PerformanceContext 记录优化模式下作为参考的来源创意。
type PerformanceContext struct {
	AdName string  `json:"ad_name"`
	Score  float64 `json:"score"`
}

// ValidMode 判断生成模式是否合法。
func ValidMode(mode string) bool {
	return mode == ModeExploration || mode == ModeOptimization
}
