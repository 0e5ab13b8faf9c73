package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
)

const defaultBatchSize = 50

// Relay moves pending outbox rows to the broker. Rows are claimed with
// FOR UPDATE SKIP LOCKED inside one transaction, so several relays can
// run side by side without double publishing.
type Relay struct {
	tx           database.Transactor
	repo         notification.OutboxRepository
	publisher    Publisher
	pollInterval time.Duration
	batchSize    int
}

func NewRelay(tx database.Transactor, repo notification.OutboxRepository, publisher Publisher, pollInterval time.Duration) *Relay {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &Relay{
		tx:           tx,
		repo:         repo,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    defaultBatchSize,
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	slog.Info("outbox relay started", "poll_interval", r.pollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.ProcessPending(ctx); err != nil {
				slog.Error("process outbox events failed", "error", err)
			}
		}
	}
}

// ProcessPending publishes one batch and returns how many events were sent.
// A publish failure marks only that event for retry.
func (r *Relay) ProcessPending(ctx context.Context) (int, error) {
	sent := 0
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		events, err := r.repo.ListPending(ctx, r.batchSize)
		if err != nil {
			return fmt.Errorf("failed to list pending outbox events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		slog.Debug("processing pending outbox events", "count", len(events))

		for _, event := range events {
			if err := r.publisher.Publish(ctx, event); err != nil {
				slog.Warn("publish outbox event failed",
					"outbox_id", event.ID,
					"event_type", event.EventType,
					"topic", event.Topic,
					"retry_count", event.RetryCount,
					"error", err,
				)
				if err := r.repo.MarkFailed(ctx, event.ID, err.Error()); err != nil {
					return fmt.Errorf("failed to mark outbox event %s failed: %w", event.ID, err)
				}
				continue
			}

			if err := r.repo.MarkSent(ctx, event.ID); err != nil {
				return fmt.Errorf("failed to mark outbox event %s sent: %w", event.ID, err)
			}
			sent++

			slog.Info("outbox event sent",
				"outbox_id", event.ID,
				"event_type", event.EventType,
				"topic", event.Topic,
			)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}
