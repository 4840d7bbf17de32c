package mq

import (
	"context"
	"encoding/json"
	"log/slog"

	"fedinbox/internal/models"
)

// Publisher 把下游调用变成显式的异步任务投递。
// 通知/转发/延迟删除都是尽力而为：发布失败记日志后丢弃，不回传给调用方
type Publisher struct {
	rabbit *RabbitMQ
}

func NewPublisher(rabbit *RabbitMQ) *Publisher {
	return &Publisher{rabbit: rabbit}
}

// PublishInbox 入站活动入队。这条不是尽力而为，失败要让 HTTP 层知道
func (p *Publisher) PublishInbox(ctx context.Context, msg models.InboxMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.rabbit.Publish(InboxQueue, body)
}

func (p *Publisher) Notify(ctx context.Context, account models.Account, kind, recordType string, recordID uint) {
	msg := models.NotificationMsg{
		AccountID:  account.ID,
		Kind:       kind,
		RecordType: recordType,
		RecordID:   recordID,
	}

	body, _ := json.Marshal(msg)
	if err := p.rabbit.Publish(NotificationQueue, body); err != nil {
		slog.Error("Failed to publish notification", "account_id", account.ID, "kind", kind, "error", err)
	}
}

func (p *Publisher) Redistribute(ctx context.Context, raw json.RawMessage, originAccountID uint, inboxes []string) {
	msg := models.DistributionMsg{
		Raw:             raw,
		OriginAccountID: originAccountID,
		Inboxes:         inboxes,
	}

	body, _ := json.Marshal(msg)
	if err := p.rabbit.Publish(DistributionQueue, body); err != nil {
		// 转发是锦上添花，发不出去就算了
		slog.Warn("Failed to publish distribution", "origin_account_id", originAccountID, "error", err)
	}
}

func (p *Publisher) DeleteLater(ctx context.Context, uri string) {
	body, _ := json.Marshal(models.DeleteMsg{URI: uri})
	if err := p.rabbit.Publish(DeleteQueue, body); err != nil {
		slog.Warn("Failed to publish deferred deletion", "uri", uri, "error", err)
	}
}
