package models

import "time"

type Status struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	AccountID uint   `gorm:"index"`
	URI       string `json:"uri" gorm:"size:255;uniqueIndex"`

	// 转发来源，非空表示这条状态是一条转发
	ReblogOfID *uint `gorm:"index"`

	FavouritesCount int `gorm:"default:0"`
	ReactionsCount  int `gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Account Account `json:"account"`
}

func (Status) TableName() string {
	return "statuses"
}

func (s Status) Reblog() bool {
	return s.ReblogOfID != nil
}

// Tombstone 记录已经收到过 Delete 的对象 URI，用于 delete 先到的竞态判断
type Tombstone struct {
	ID  uint   `gorm:"primaryKey"`
	URI string `gorm:"size:255;uniqueIndex"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Tombstone) TableName() string {
	return "tombstones"
}
