package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const aggregateType = "notification"

type outboxNotifier struct {
	tx     database.Transactor
	repo   notification.Repository
	outbox notification.OutboxRepository
	topic  string
}

// NewOutboxNotifier stores each notification together with an outbox event
// in one transaction; the relay publishes the event to topic later.
func NewOutboxNotifier(tx database.Transactor, repo notification.Repository, outbox notification.OutboxRepository, topic string) notification.Notifier {
	return &outboxNotifier{
		tx:     tx,
		repo:   repo,
		outbox: outbox,
		topic:  topic,
	}
}

// Notify implements notification.Notifier.
func (n *outboxNotifier) Notify(ctx context.Context, req notification.NotifyRequest) {
	if err := n.notify(ctx, req); err != nil {
		slog.Error("failed to store notification",
			"recipient_id", req.RecipientID,
			"type", req.Type,
			"error", err,
		)
	}
}

func (n *outboxNotifier) notify(ctx context.Context, req notification.NotifyRequest) error {
	if req.RecipientID == "" {
		return fmt.Errorf("recipient is required")
	}

	entity := &notification.Notification{
		ID:          uuid.New().String(),
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		Data:        req.Data,
		CreatedAt:   time.Now(),
	}
	if req.Link != "" {
		link := req.Link
		entity.Link = &link
	}

	payload, err := json.Marshal(notification.EventPayload{
		NotificationID: entity.ID,
		RecipientID:    entity.RecipientID,
		Type:           entity.Type,
		Title:          entity.Title,
		Message:        entity.Message,
		Link:           entity.Link,
		Data:           entity.Data,
		CreatedAt:      entity.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification event: %w", err)
	}

	return n.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := n.repo.Create(ctx, entity); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		if err := n.outbox.Create(ctx, notification.OutboxEvent{
			ID:            uuid.New().String(),
			AggregateType: aggregateType,
			AggregateID:   entity.RecipientID,
			EventType:     string(entity.Type),
			Topic:         n.topic,
			Payload:       payload,
			Status:        notification.OutboxStatusPending,
		}); err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		return nil
	})
}
