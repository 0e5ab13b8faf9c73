package kafka

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher delivers one outbox event to the broker.
type Publisher interface {
	Publish(ctx context.Context, event notification.OutboxEvent) error
}

// NewWriter returns a writer that routes messages by their own Topic and
// partitions by key, so events of one recipient stay ordered.
func NewWriter(brokers []string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

type writerPublisher struct {
	writer *kafkago.Writer
}

func NewPublisher(writer *kafkago.Writer) Publisher {
	return &writerPublisher{writer: writer}
}

func (p *writerPublisher) Publish(ctx context.Context, event notification.OutboxEvent) error {
	return p.writer.WriteMessages(ctx, toMessage(event))
}

func toMessage(event notification.OutboxEvent) kafkago.Message {
	return kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
			{Key: "outbox_id", Value: []byte(event.ID)},
		},
	}
}
