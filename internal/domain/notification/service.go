package notification

import (
	"context"
)

// Notifier delivers notifications. It never fails the caller: errors are
// logged and dropped.
type Notifier interface {
	Notify(ctx context.Context, req NotifyRequest)
}

// Service defines the notification inbox
type Service interface {
	GetNotifications(ctx context.Context, page, pageSize int, unreadOnly bool) (*NotificationListResponse, error)
	GetUnreadCount(ctx context.Context) (int, error)
	MarkAsRead(ctx context.Context, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context) error
}
