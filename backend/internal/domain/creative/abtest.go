package creative

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	TestStatusActive    = "ACTIVE"
	TestStatusCompleted = "COMPLETED"
	TestStatusCancelled = "CANCELLED"
)

// ABTest 描述两个创意之间的对照实验。
type ABTest struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AdSetID      string          `gorm:"size:128;index" json:"ad_set_id"`
	TestName     string          `gorm:"size:255" json:"test_name"`
	VariationAID uint            `json:"variation_a_id"`
	VariationA   *AdCreative     `gorm:"foreignKey:VariationAID" json:"variation_a,omitempty"`
	VariationBID uint            `json:"variation_b_id"`
	VariationB   *AdCreative     `gorm:"foreignKey:VariationBID" json:"variation_b,omitempty"`
	DurationDays int             `json:"duration_days"`
	Budget       decimal.Decimal `gorm:"type:decimal(14,2)" json:"budget"`
	Metrics      datatypes.JSON  `gorm:"type:json" json:"metrics"`
	Status       string          `gorm:"size:16;index" json:"status"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `gorm:"index" json:"end_date"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName 指定数据库表名。
func (ABTest) TableName() string {
	return "ab_tests"
}

// IsTerminal 判断实验是否已结束。
func (t ABTest) IsTerminal() bool {
	return t.Status == TestStatusCompleted || t.Status == TestStatusCancelled
}
