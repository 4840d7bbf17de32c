package inbox

import (
	"context"
	"encoding/json"

	"fedinbox/internal/models"
)

const (
	NotifyFavourite     = "favourite"
	NotifyEmojiReaction = "emoji_reaction"
)

// 下游调用全部是"提交了就不管"的异步任务：
// 没有返回值可观察，失败由实现方记日志后丢弃，绝不反过来影响活动处理。

// Notifier 给状态主人发通知（只对本地账号）
type Notifier interface {
	Notify(ctx context.Context, account models.Account, kind, recordType string, recordID uint)
}

// Redistributor 把原始活动载荷转发出去，尽力而为
type Redistributor interface {
	Redistribute(ctx context.Context, raw json.RawMessage, originAccountID uint, inboxes []string)
}

// Deleter 延迟删除：现在解析不出来的对象，之后再尝试删
type Deleter interface {
	DeleteLater(ctx context.Context, uri string)
}

// IconMirror 把自定义表情的图标镜像到对象存储
type IconMirror interface {
	Mirror(ctx context.Context, shortcode, domain, imageURL string)
}

// EnvelopePublisher HTTP 层把验签后的活动丢进处理队列
type EnvelopePublisher interface {
	PublishInbox(ctx context.Context, msg models.InboxMsg) error
}
