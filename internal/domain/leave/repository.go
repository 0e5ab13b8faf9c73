package leave

import (
	"context"
	"time"
)

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	List(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)

	// UpdateStatus moves a request from one status to another; it returns
	// ErrLeaveRequestAlreadyProcessed when the request is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to LeaveRequestStatus, reviewedBy *string, note *string) error

	// SumReservedDays sums pending and approved days of a type charged to a year.
	SumReservedDays(ctx context.Context, employeeID string, leaveType LeaveType, year int) (float64, error)

	// SumApprovedDaysSince sums approved days of a type starting on or after since.
	SumApprovedDaysSince(ctx context.Context, employeeID string, leaveType LeaveType, since time.Time) (float64, error)

	// ListApprovedOverlapping returns approved requests intersecting [from, to].
	ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]LeaveRequest, error)
}

// CancellationRepository - interface for leave_cancellation_requests table
type CancellationRepository interface {
	Create(ctx context.Context, req CancellationRequest) (CancellationRequest, error)
	GetByID(ctx context.Context, id string) (CancellationRequest, error)
	HasPending(ctx context.Context, leaveRequestID string) (bool, error)
	List(ctx context.Context, status *CancellationStatus) ([]CancellationRequest, error)
	UpdateStatus(ctx context.Context, id string, from, to CancellationStatus, reviewedBy string) error
}

// BalanceRepository - interface for leave_balances table
type BalanceRepository interface {
	// Get returns ErrBalanceNotFound when the year has no row yet.
	Get(ctx context.Context, employeeID string, year int) (Balance, error)
	// GetForUpdate locks the row; only meaningful inside a transaction.
	GetForUpdate(ctx context.Context, employeeID string, year int) (Balance, error)
	// CreateIfAbsent inserts the row unless one already exists.
	CreateIfAbsent(ctx context.Context, balance Balance) error
	UpsertTotal(ctx context.Context, employeeID string, year int, total float64) error
	UpdateUsedDays(ctx context.Context, employeeID string, year int, used float64) error
}
