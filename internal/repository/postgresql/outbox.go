package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
)

// maxRetryBackoffSteps caps the linear backoff at ten 15s steps.
const maxRetryBackoffSteps = 10

type outboxRepository struct {
	db *database.DB
}

func NewOutboxRepository(db *database.DB) notification.OutboxRepository {
	return &outboxRepository{db: db}
}

// Create implements notification.OutboxRepository.
func (r *outboxRepository) Create(ctx context.Context, event notification.OutboxEvent) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	if event.ID == "" {
		event.ID = newID()
	}
	if event.Status == "" {
		event.Status = notification.OutboxStatusPending
	}

	query := `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, topic, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.Exec(ctx, query,
		event.ID, event.AggregateType, event.AggregateID, event.EventType, event.Topic, event.Payload, event.Status,
	)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to create outbox event: %w", err))
	}
	return nil
}

// ListPending implements notification.OutboxRepository. Rows are locked with
// SKIP LOCKED so several relays can poll the same table.
func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]notification.OutboxEvent, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, topic, payload, status,
			retry_count, next_retry_at, created_at
		FROM outbox_events
		WHERE status IN ('pending', 'failed') AND next_retry_at <= NOW()
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to query outbox events: %w", err))
	}
	defer rows.Close()

	var events []notification.OutboxEvent
	for rows.Next() {
		var e notification.OutboxEvent
		if err := rows.Scan(
			&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Topic, &e.Payload, &e.Status,
			&e.RetryCount, &e.NextRetryAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate outbox events: %w", err))
	}
	return events, nil
}

// MarkSent implements notification.OutboxRepository.
func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE outbox_events
		SET status = 'sent', sent_at = NOW(), last_error = NULL
		WHERE id = $1
	`
	if _, err := q.Exec(ctx, query, id); err != nil {
		return database.Classify(fmt.Errorf("failed to mark outbox event sent: %w", err))
	}
	return nil
}

// MarkFailed implements notification.OutboxRepository.
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE outbox_events
		SET status = 'failed',
			retry_count = retry_count + 1,
			last_error = $2,
			next_retry_at = NOW() + LEAST(retry_count + 1, $3) * INTERVAL '15 seconds'
		WHERE id = $1
	`
	if _, err := q.Exec(ctx, query, id, reason, maxRetryBackoffSteps); err != nil {
		return database.Classify(fmt.Errorf("failed to mark outbox event failed: %w", err))
	}
	return nil
}
