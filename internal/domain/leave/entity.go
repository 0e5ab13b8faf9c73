package leave

import (
	"time"
)

type LeaveType string

const (
	LeaveTypeAnnual      LeaveType = "annual"
	LeaveTypeSick        LeaveType = "sick"
	LeaveTypePersonal    LeaveType = "personal"
	LeaveTypeBereavement LeaveType = "bereavement"
	LeaveTypeMaternity   LeaveType = "maternity"
	LeaveTypeUnpaid      LeaveType = "unpaid"
)

var LeaveTypes = []LeaveType{
	LeaveTypeAnnual,
	LeaveTypeSick,
	LeaveTypePersonal,
	LeaveTypeBereavement,
	LeaveTypeMaternity,
	LeaveTypeUnpaid,
}

func (t LeaveType) Valid() bool {
	for _, lt := range LeaveTypes {
		if lt == t {
			return true
		}
	}
	return false
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending   LeaveRequestStatus = "pending"
	LeaveRequestStatusApproved  LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected  LeaveRequestStatus = "rejected"
	LeaveRequestStatusCancelled LeaveRequestStatus = "cancelled"
)

// LeaveRequest entity
type LeaveRequest struct {
	ID         string
	EmployeeID string
	LeaveType  LeaveType

	StartDate time.Time
	EndDate   time.Time // inclusive
	Days      float64
	Reason    string

	Status     LeaveRequestStatus
	ReviewedBy *string
	ReviewedAt *time.Time
	ReviewNote *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	EmployeeName *string
}

// BalanceYear is the calendar year a request is charged against.
func (r LeaveRequest) BalanceYear() int {
	return r.StartDate.Year()
}

type CancellationStatus string

const (
	CancellationStatusPending  CancellationStatus = "pending"
	CancellationStatusApproved CancellationStatus = "approved"
	CancellationStatusRejected CancellationStatus = "rejected"
)

// CancellationRequest asks a manager to cancel an already approved leave.
type CancellationRequest struct {
	ID             string
	LeaveRequestID string
	EmployeeID     string
	Reason         string
	Status         CancellationStatus
	ReviewedBy     *string
	ReviewedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Relationships (for responses)
	EmployeeName *string
	Leave        *LeaveRequest
}

// Balance is the per-year annual leave allowance. UsedDays mirrors the
// pending+approved reservation for display only.
type Balance struct {
	ID         string
	EmployeeID string
	Year       int
	TotalDays  float64
	UsedDays   float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
