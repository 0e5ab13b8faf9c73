package leave

import (
	"errors"
	"fmt"
)

var (
	ErrLeaveRequestNotFound         = errors.New("leave request not found")
	ErrLeaveRequestAlreadyProcessed = errors.New("leave request already processed")
	ErrLeaveRequestNotPending       = errors.New("only pending leave requests can be cancelled")
	ErrLeaveRequestNotApproved      = errors.New("only approved leave requests can be cancelled through a cancellation request")
	ErrNotLeaveOwner                = errors.New("leave request belongs to another employee")
	ErrInsufficientBalance          = errors.New("insufficient annual leave balance")
	ErrBalanceNotFound              = errors.New("leave balance not found")
	ErrBalanceUnavailable           = errors.New("annual leave balance cannot be initialized without an onboard date")
	ErrCancellationNotFound         = errors.New("cancellation request not found")
	ErrCancellationAlreadyPending   = errors.New("a cancellation request is already pending for this leave")
	ErrCancellationAlreadyProcessed = errors.New("cancellation request already processed")
	ErrCannotReviewOwnRequest       = errors.New("cannot review your own request")
)

// InsufficientBalanceError carries the figures behind a rejected reservation.
type InsufficientBalanceError struct {
	Year      int
	Total     float64
	Reserved  float64
	Requested float64
}

func (e *InsufficientBalanceError) Remaining() float64 {
	if r := e.Total - e.Reserved; r > 0 {
		return r
	}
	return 0
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient annual leave balance for %d: requested %.1f day(s), %.1f of %.1f already reserved, %.1f remaining",
		e.Year, e.Requested, e.Reserved, e.Total, e.Remaining())
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// Details exposes the figures for API responses.
func (e *InsufficientBalanceError) Details() map[string]interface{} {
	return map[string]interface{}{
		"year":      e.Year,
		"total":     e.Total,
		"reserved":  e.Reserved,
		"requested": e.Requested,
		"remaining": e.Remaining(),
	}
}
