package notification

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
)

type service struct {
	repo notification.Repository
}

// NewNotificationService returns the inbox of the authenticated caller.
func NewNotificationService(repo notification.Repository) notification.Service {
	return &service{repo: repo}
}

// GetNotifications retrieves paginated notifications for the caller
func (s *service) GetNotifications(ctx context.Context, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notifications, total, err := s.repo.GetByRecipient(ctx, actor.EmployeeID, page, pageSize, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unreadCount, err := s.repo.GetUnreadCount(ctx, actor.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = notification.ToResponse(n)
	}

	return &notification.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unreadCount,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

// GetUnreadCount returns the count of unread notifications
func (s *service) GetUnreadCount(ctx context.Context) (int, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.GetUnreadCount(ctx, actor.EmployeeID)
}

// MarkAsRead marks the caller's notifications as read; ids of other
// recipients are ignored.
func (s *service) MarkAsRead(ctx context.Context, req notification.MarkAsReadRequest) error {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, req.NotificationIDs, actor.EmployeeID)
}

// MarkAllAsRead marks all notifications as read for the caller
func (s *service) MarkAllAsRead(ctx context.Context) error {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return err
	}
	return s.repo.MarkAllAsRead(ctx, actor.EmployeeID)
}
