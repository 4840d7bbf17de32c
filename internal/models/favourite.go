package models

import "time"

// 同一账号对同一状态最多只有一条收藏记录
type Favourite struct {
	ID        uint `gorm:"primaryKey"`
	AccountID uint `gorm:"uniqueIndex:idx_fav_account_status"`
	StatusID  uint `gorm:"uniqueIndex:idx_fav_account_status"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Favourite) TableName() string {
	return "favourites"
}
