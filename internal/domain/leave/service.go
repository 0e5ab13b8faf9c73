package leave

import (
	"context"
)

type LeaveService interface {
	// Request
	ApplyLeave(ctx context.Context, req ApplyLeaveRequest) (LeaveRequestResponse, error)
	GetMyLeaveRequests(ctx context.Context, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	ListLeaveRequests(ctx context.Context, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	ApproveLeaveRequest(ctx context.Context, id string, req ReviewRequest) (LeaveRequestResponse, error)
	RejectLeaveRequest(ctx context.Context, id string, req ReviewRequest) (LeaveRequestResponse, error)
	CancelLeaveRequest(ctx context.Context, id string) (LeaveRequestResponse, error)

	// Cancellation of approved leave
	RequestCancellation(ctx context.Context, leaveRequestID string, req CreateCancellationRequest) (CancellationResponse, error)
	ListCancellationRequests(ctx context.Context, status *string) ([]CancellationResponse, error)
	ApproveCancellation(ctx context.Context, id string) (CancellationResponse, error)
	RejectCancellation(ctx context.Context, id string) (CancellationResponse, error)

	// Balance
	GetMyBalance(ctx context.Context, year int) (BalanceResponse, error)
	GetBalance(ctx context.Context, employeeID string, year int) (BalanceResponse, error)
}
