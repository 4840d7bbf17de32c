package models

import "time"

type Follow struct {
	ID              uint   `gorm:"primaryKey"`
	AccountID       uint   `gorm:"uniqueIndex:idx_follow_pair"`
	TargetAccountID uint   `gorm:"uniqueIndex:idx_follow_pair"`
	URI             string `gorm:"size:255;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Follow) TableName() string {
	return "follows"
}

type FollowRequest struct {
	ID              uint   `gorm:"primaryKey"`
	AccountID       uint   `gorm:"uniqueIndex:idx_follow_req_pair"`
	TargetAccountID uint   `gorm:"uniqueIndex:idx_follow_req_pair"`
	URI             string `gorm:"size:255;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (FollowRequest) TableName() string {
	return "follow_requests"
}

type Block struct {
	ID              uint   `gorm:"primaryKey"`
	AccountID       uint   `gorm:"uniqueIndex:idx_block_pair"`
	TargetAccountID uint   `gorm:"uniqueIndex:idx_block_pair"`
	URI             string `gorm:"size:255;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Block) TableName() string {
	return "blocks"
}
