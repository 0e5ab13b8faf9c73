package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeLeaveRequest               NotificationType = "leave_request"
	TypeLeaveApproved              NotificationType = "leave_approved"
	TypeLeaveRejected              NotificationType = "leave_rejected"
	TypeLeaveCancellationRequested NotificationType = "leave_cancellation_requested"
	TypeLeaveCancellationApproved  NotificationType = "leave_cancellation_approved"
	TypeLeaveCancellationRejected  NotificationType = "leave_cancellation_rejected"
	TypeSalarySettled              NotificationType = "salary_settled"
	TypeSalaryResettled            NotificationType = "salary_resettled"
	TypeAnnualLeaveGranted         NotificationType = "annual_leave_granted"
	TypeAttendanceEdited           NotificationType = "attendance_edited"
)

// Notification represents a notification entity
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Link        *string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// OutboxEvent is a message waiting to be relayed to the broker.
type OutboxEvent struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	NextRetryAt   time.Time
	CreatedAt     time.Time
}
