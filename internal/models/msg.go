package models

import "encoding/json"

// InboxMsg HTTP 层验签之后丢进 inbox_queue 的原始活动
type InboxMsg struct {
	Raw     json.RawMessage `json:"raw"`
	ActorID uint            `json:"actor_id"`
}

// DistributionMsg 原样转发活动载荷到指定收件箱，尽力而为
type DistributionMsg struct {
	Raw             json.RawMessage `json:"raw"`
	OriginAccountID uint            `json:"origin_account_id"`
	Inboxes         []string        `json:"inboxes"`
}

// DeleteMsg 延迟删除：现在解析不出来的对象，之后再尝试删
type DeleteMsg struct {
	URI string `json:"uri"`
}

type NotificationMsg struct {
	AccountID  uint   `json:"account_id"`
	Kind       string `json:"kind"` // "favourite" 或 "emoji_reaction"
	RecordType string `json:"record_type"`
	RecordID   uint   `json:"record_id"`
}
