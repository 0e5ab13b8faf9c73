package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryState is the persisted tag of a salary record.
type SalaryState string

const (
	// SalaryStateLive rows are a cache of the last live computation.
	SalaryStateLive SalaryState = "live"
	// SalaryStateSettled rows are frozen; SettledData is authoritative.
	SalaryStateSettled SalaryState = "settled"
)

// BreakdownStatus tells callers whether figures are recomputed or frozen.
type BreakdownStatus string

const (
	StatusUnsettled BreakdownStatus = "UNSETTLED"
	StatusSettled   BreakdownStatus = "SETTLED"
)

// SalaryRecord - one row per employee and month
type SalaryRecord struct {
	ID          string
	EmployeeID  string
	YearMonth   string // YYYY-MM
	State       SalaryState
	BaseSalary  decimal.Decimal
	Bonus       decimal.Decimal
	TotalSalary decimal.Decimal
	WorkHours   float64
	IsPaid      bool
	PaidAt      *time.Time
	PaidBy      *string
	Notes       *string
	SettledData *SalaryFigures
	ComputedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	EmployeeName *string
}

// IsSettled reports whether the record holds a frozen snapshot.
func (r SalaryRecord) IsSettled() bool {
	return r.IsPaid && r.SettledData != nil
}

// SettledBreakdown returns the frozen snapshot. Only valid when IsSettled.
func (r SalaryRecord) SettledBreakdown() SalaryBreakdown {
	return SalaryBreakdown{
		Status:  StatusSettled,
		Figures: *r.SettledData,
		PaidAt:  r.PaidAt,
		PaidBy:  r.PaidBy,
	}
}

// SalaryFigures is the full breakdown of one month. Serialized as-is into
// settled_data when a month is settled.
type SalaryFigures struct {
	EmployeeID      string             `json:"employee_id"`
	YearMonth       string             `json:"year_month"`
	SalaryType      string             `json:"salary_type"`
	Rate            decimal.Decimal    `json:"rate"`
	BaseSalary      decimal.Decimal    `json:"base_salary"`
	Bonus           decimal.Decimal    `json:"bonus"`
	TotalSalary     decimal.Decimal    `json:"total_salary"`
	WorkHours       float64            `json:"work_hours"`
	TotalBreakHours float64            `json:"total_break_hours"`
	AttendanceDays  int                `json:"attendance_days"`
	LateCount       int                `json:"late_count"`
	EarlyLeaveCount int                `json:"early_leave_count"`
	LeaveDays       map[string]float64 `json:"leave_days"`
	TotalLeaveDays  float64            `json:"total_leave_days"`
	Notes           *string            `json:"notes,omitempty"`
	ComputedAt      time.Time          `json:"computed_at"`
}

// SalaryBreakdown is the result of a salary calculation.
type SalaryBreakdown struct {
	Status  BreakdownStatus
	Figures SalaryFigures
	PaidAt  *time.Time
	PaidBy  *string
}

func (b SalaryBreakdown) IsSettled() bool {
	return b.Status == StatusSettled
}
