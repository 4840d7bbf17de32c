package mq

import (
	"context"
	"fmt"
	"time"

	"fedinbox/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// 验签后的入站活动
	InboxQueue = "inbox_queue"
	// 通知扇出（投递由外部服务消费）
	NotificationQueue = "notification_queue"
	// 原样转发活动载荷到远端收件箱
	DistributionQueue = "distribution_queue"
	// 延迟删除任务
	DeleteQueue = "delete_queue"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// New 初始化 RabbitMQ 连接并声明全部队列
func New(cfg *config.Config) (*RabbitMQ, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.MQUser,
		cfg.MQPassword,
		cfg.MQHost,
		cfg.MQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // 通道创建失败记得关连接
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	for _, queue := range []string{InboxQueue, NotificationQueue, DistributionQueue, DeleteQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
	}

	return &RabbitMQ{
		conn:    conn,
		channel: ch,
	}, nil
}

func (r *RabbitMQ) Publish(queue string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Consume 手动确认模式：消费者处理完才 ack，失败 nack 让 broker 重投
func (r *RabbitMQ) Consume(queue string) (<-chan amqp.Delivery, error) {
	return r.channel.Consume(queue, "", false, false, false, false, nil)
}

// Close 关闭连接
func (r *RabbitMQ) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
