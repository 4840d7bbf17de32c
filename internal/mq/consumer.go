package mq

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"fedinbox/internal/activitypub"
	"fedinbox/internal/inbox"
	"fedinbox/internal/models"
)

// ActivityProcessor 消费侧需要的处理能力
type ActivityProcessor interface {
	Process(ctx context.Context, env *activitypub.Envelope) (inbox.Outcome, error)
}

// Consumer 持有处理核心，从队列拉活动逐条处理
type Consumer struct {
	rabbit    *RabbitMQ
	processor ActivityProcessor
	workers   int
}

func NewConsumer(rabbit *RabbitMQ, processor ActivityProcessor, workers int) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		rabbit:    rabbit,
		processor: processor,
		workers:   workers,
	}
}

// Start 启动所有消费者监听。活动之间没有全局顺序，
// 同一资源的串行化靠处理核心里的资源锁
func (c *Consumer) Start() {
	for i := 0; i < c.workers; i++ {
		go c.consumeInbox()
	}
}

func (c *Consumer) consumeInbox() {
	msgs, err := c.rabbit.Consume(InboxQueue)
	if err != nil {
		slog.Error("Failed to start inbox consumer", "error", err)
		return
	}

	slog.Info("Waiting for inbox activities...")

	for d := range msgs {
		c.handleDelivery(d)
	}
}

// handleDelivery 处理一条投递并决定确认方式。
// 格式错误和分类过的跳过照常 ack，重投不会有不同结果；
// 只有存储这类意外错误才 nack 重投，交给 broker 兜底
func (c *Consumer) handleDelivery(d amqp.Delivery) {
	var msg models.InboxMsg
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		slog.Error("Failed to unmarshal msg", "error", err)
		d.Ack(false)
		return
	}

	env, err := activitypub.ParseEnvelope(msg.Raw, msg.ActorID)
	if err != nil {
		slog.Error("Malformed activity dropped", "error", err)
		d.Ack(false)
		return
	}

	outcome, err := c.processor.Process(context.Background(), env)
	if err != nil {
		slog.Error("Activity processing failed, requeueing", "activity_id", env.ID, "error", err)
		d.Nack(false, true)
		return
	}

	slog.Info("Activity processed",
		"activity_id", env.ID,
		"type", env.Type.String(),
		"outcome", outcome.String())
	d.Ack(false)
}
