package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== SALARY DTOs ==========

type SalaryResponse struct {
	Status          string             `json:"status"`
	EmployeeID      string             `json:"employee_id"`
	EmployeeName    *string            `json:"employee_name,omitempty"`
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
	ComputedAt      string             `json:"computed_at"`
	PaidAt          *string            `json:"paid_at,omitempty"`
	PaidBy          *string            `json:"paid_by,omitempty"`
}

func ToSalaryResponse(b SalaryBreakdown) SalaryResponse {
	f := b.Figures
	resp := SalaryResponse{
		Status:          string(b.Status),
		EmployeeID:      f.EmployeeID,
		YearMonth:       f.YearMonth,
		SalaryType:      f.SalaryType,
		Rate:            f.Rate,
		BaseSalary:      f.BaseSalary,
		Bonus:           f.Bonus,
		TotalSalary:     f.TotalSalary,
		WorkHours:       f.WorkHours,
		TotalBreakHours: f.TotalBreakHours,
		AttendanceDays:  f.AttendanceDays,
		LateCount:       f.LateCount,
		EarlyLeaveCount: f.EarlyLeaveCount,
		LeaveDays:       f.LeaveDays,
		TotalLeaveDays:  f.TotalLeaveDays,
		Notes:           f.Notes,
		ComputedAt:      f.ComputedAt.Format(time.RFC3339),
		PaidBy:          b.PaidBy,
	}
	if b.PaidAt != nil {
		s := b.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &s
	}
	return resp
}

type SalaryOverviewResponse struct {
	YearMonth       string           `json:"year_month"`
	EmployeeCount   int              `json:"employee_count"`
	SettledCount    int              `json:"settled_count"`
	TotalPayroll    decimal.Decimal  `json:"total_payroll"`
	Salaries        []SalaryResponse `json:"salaries"`
	FailedEmployees []string         `json:"failed_employees,omitempty"`
}

type UpdateBonusRequest struct {
	// Bonus accepts a JSON number or a numeric string.
	Bonus *decimal.Decimal `json:"bonus"`
	Notes *string          `json:"notes,omitempty"`
}

func (r *UpdateBonusRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Bonus == nil {
		errs = append(errs, validator.ValidationError{Field: "bonus", Message: "bonus is required"})
	} else if r.Bonus.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "bonus", Message: ErrNegativeBonus.Error()})
	}

	if r.Notes != nil && len(*r.Notes) > 1000 {
		errs = append(errs, validator.ValidationError{Field: "notes", Message: "notes must not exceed 1000 characters"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
