package models

import "time"

// Reaction 与收藏不同：同一账号对同一状态只能有一个表情回应，
// 换表情时先删旧的再建新的
type Reaction struct {
	ID        uint   `gorm:"primaryKey"`
	AccountID uint   `gorm:"uniqueIndex:idx_react_account_status;index:idx_react_account_uri"`
	StatusID  uint   `gorm:"uniqueIndex:idx_react_account_status"`
	Name      string `gorm:"size:255"`

	// 仅当回应带合法的自定义表情标签时才会填充
	CustomEmojiID *uint `gorm:"index"`

	// 记录 Like 活动自身的 id，之后 Undo 按 (account, uri) 反查
	URI string `gorm:"size:255;index:idx_react_account_uri"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Reaction) TableName() string {
	return "reactions"
}
