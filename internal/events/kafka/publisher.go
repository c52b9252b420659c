package kafka

import (
	"context"
	"encoding/json"

	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes settlement events and notifications to Kafka as JSON.
// The topic is chosen per message, so one writer serves both streams.
type Publisher struct {
	writer             messageWriter
	notificationsTopic string
}

func NewPublisher(brokers []string, notificationsTopic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		notificationsTopic: notificationsTopic,
	}
}

func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	return p.write(ctx, topic, "", event)
}

// Notify keys notifications by recipient so one account's messages stay ordered
func (p *Publisher) Notify(ctx context.Context, n models.Notification) error {
	return p.write(ctx, p.notificationsTopic, n.RecipientID, n)
}

func (p *Publisher) write(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Value: data,
	}
	if key != "" {
		msg.Key = []byte(key)
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var (
	_ interfaces.EventPublisher = (*Publisher)(nil)
	_ interfaces.Notifier       = (*Publisher)(nil)
)
