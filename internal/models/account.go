package models

import "time"

type Account struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"size:255;uniqueIndex:idx_account_acct"`
	// Domain 为空表示本地账号
	Domain string `json:"domain" gorm:"size:255;uniqueIndex:idx_account_acct"`
	URI    string `json:"uri" gorm:"size:255;uniqueIndex"`

	InboxURL       string `json:"inbox_url" gorm:"size:255"`
	SharedInboxURL string `json:"shared_inbox_url" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a Account) Local() bool {
	return a.Domain == ""
}

// PreferredInboxURL 优先用共享收件箱，没有再退回个人收件箱
func (a Account) PreferredInboxURL() string {
	if a.SharedInboxURL != "" {
		return a.SharedInboxURL
	}
	return a.InboxURL
}
