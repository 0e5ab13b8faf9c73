package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type notificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

// Create creates a new notification
func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	dataJSON, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	query := `
		INSERT INTO notifications (id, recipient_id, sender_id, type, title, message, link, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = q.Exec(ctx, query,
		n.ID,
		n.RecipientID,
		n.SenderID,
		string(n.Type),
		n.Title,
		n.Message,
		n.Link,
		dataJSON,
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to create notification: %w", err))
	}

	return nil
}

// GetByRecipient retrieves notifications for an employee with pagination
func (r *notificationRepository) GetByRecipient(ctx context.Context, recipientID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	// Build query with optional unread filter
	whereClause := "recipient_id = $1"
	args := []interface{}{recipientID}
	argIndex := 2

	if unreadOnly {
		whereClause += " AND is_read = false"
	}

	// Count query
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM notifications WHERE %s", whereClause)
	var total int
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.Classify(fmt.Errorf("failed to count notifications: %w", err))
	}

	// Data query
	query := fmt.Sprintf(`
		SELECT id, recipient_id, sender_id, type, title, message, link, data, is_read, read_at, created_at
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset(page, pageSize))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, database.Classify(fmt.Errorf("failed to query notifications: %w", err))
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		var n notification.Notification
		var dataJSON []byte
		var notifType string

		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.SenderID,
			&notifType,
			&n.Title,
			&n.Message,
			&n.Link,
			&dataJSON,
			&n.IsRead,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}

		n.Type = notification.NotificationType(notifType)
		if dataJSON != nil {
			if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}

		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, database.Classify(fmt.Errorf("failed to iterate notifications: %w", err))
	}

	return notifications, total, nil
}

// GetUnreadCount returns the count of unread notifications for an employee
func (r *notificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`
	var count int
	if err := q.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, database.Classify(fmt.Errorf("failed to count unread notifications: %w", err))
	}

	return count, nil
}

// MarkAsRead marks specific notifications as read
func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, recipientID string) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	// Build placeholders
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids)+2)
	args[0] = time.Now()
	args[1] = recipientID

	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+3)
		args[i+2] = id
	}

	query := fmt.Sprintf(`
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE recipient_id = $2 AND is_read = false AND id IN (%s)
	`, strings.Join(placeholders, ", "))

	_, err := q.Exec(ctx, query, args...)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to mark notifications as read: %w", err))
	}

	return nil
}

// MarkAllAsRead marks all notifications as read for an employee
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE recipient_id = $2 AND is_read = false
	`

	_, err := q.Exec(ctx, query, time.Now(), recipientID)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to mark all notifications as read: %w", err))
	}

	return nil
}
