package platform

import "time"

const (
	ProviderMeta = "meta"

	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

// Credential 保存广告账户访问平台数据所需的令牌，令牌以密文存储。
type Credential struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	AdAccountID       string     `gorm:"size:64;uniqueIndex" json:"ad_account_id"`
	Provider          string     `gorm:"size:32" json:"provider"`
	AccessTokenCipher []byte     `gorm:"type:blob" json:"-"`
	Status            string     `gorm:"size:16" json:"status"`
	LastVerifiedAt    *time.Time `json:"last_verified_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName 指定数据库表名。
func (Credential) TableName() string {
	return "platform_credentials"
}
