package models

import "time"

// CustomEmoji 第一次见到某个远端表情时懒加载落库，(shortcode, domain) 唯一
type CustomEmoji struct {
	ID        uint   `gorm:"primaryKey"`
	Shortcode string `gorm:"size:255;uniqueIndex:idx_emoji_shortcode_domain"`
	Domain    string `gorm:"size:255;uniqueIndex:idx_emoji_shortcode_domain"`

	URI            string `gorm:"size:255"`
	ImageRemoteURL string `gorm:"size:255"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CustomEmoji) TableName() string {
	return "custom_emojis"
}
