package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type EmployeeResponse struct {
	ID                   string          `json:"id"`
	Email                string          `json:"email"`
	FullName             string          `json:"full_name"`
	Role                 string          `json:"role"`
	SalaryType           string          `json:"salary_type"`
	SalaryAmount         decimal.Decimal `json:"salary_amount"`
	WorkStartTime        string          `json:"work_start_time"`
	WorkEndTime          string          `json:"work_end_time"`
	BreakHours           float64         `json:"break_hours"`
	OnboardDate          *string         `json:"onboard_date,omitempty"`
	AnnualLeaveTotal     float64         `json:"annual_leave_total"`
	AnnualLeaveUsed      float64         `json:"annual_leave_used"`
	AnnualLeaveRemaining float64         `json:"annual_leave_remaining"`
	LastResetDate        *string         `json:"last_reset_date,omitempty"`
	IsActive             bool            `json:"is_active"`
	CreatedAt            string          `json:"created_at"`
	UpdatedAt            string          `json:"updated_at"`
}

func ToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:                   e.ID,
		Email:                e.Email,
		FullName:             e.FullName,
		Role:                 string(e.Role),
		SalaryType:           string(e.SalaryType),
		SalaryAmount:         e.SalaryAmount,
		WorkStartTime:        e.WorkStartTime.String(),
		WorkEndTime:          e.WorkEndTime.String(),
		BreakHours:           e.BreakHours,
		AnnualLeaveTotal:     e.AnnualLeaveTotal,
		AnnualLeaveUsed:      e.AnnualLeaveUsed,
		AnnualLeaveRemaining: e.RemainingAnnualLeave(),
		IsActive:             e.IsActive,
		CreatedAt:            e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            e.UpdatedAt.Format(time.RFC3339),
	}
	if e.OnboardDate != nil {
		s := e.OnboardDate.Format(civil.DateLayout)
		resp.OnboardDate = &s
	}
	if e.LastResetDate != nil {
		s := e.LastResetDate.Format(civil.DateLayout)
		resp.LastResetDate = &s
	}
	return resp
}

type CreateEmployeeRequest struct {
	Email         string   `json:"email" validate:"required,email"`
	Password      string   `json:"password" validate:"required,min=8"`
	FullName      string   `json:"full_name" validate:"required,max=100"`
	Role          string   `json:"role" validate:"required,oneof=employee manager super_admin"`
	SalaryType    string   `json:"salary_type" validate:"required,oneof=hourly monthly"`
	SalaryAmount  string   `json:"salary_amount" validate:"required"`
	WorkStartTime string   `json:"work_start_time" validate:"required"`
	WorkEndTime   string   `json:"work_end_time" validate:"required"`
	BreakHours    *float64 `json:"break_hours,omitempty" validate:"omitempty,gte=0,max=3"`
	OnboardDate   *string  `json:"onboard_date,omitempty" validate:"omitempty,isodate"`
}

func (r *CreateEmployeeRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	if amount, err := decimal.NewFromString(r.SalaryAmount); err != nil || amount.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "salary_amount",
			Message: "salary_amount must be a non-negative number",
		})
	}
	errs = append(errs, validateSchedule(r.WorkStartTime, r.WorkEndTime)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateEmployeeRequest struct {
	FullName      *string  `json:"full_name,omitempty" validate:"omitempty,min=1,max=100"`
	Role          *string  `json:"role,omitempty" validate:"omitempty,oneof=employee manager super_admin"`
	SalaryType    *string  `json:"salary_type,omitempty" validate:"omitempty,oneof=hourly monthly"`
	SalaryAmount  *string  `json:"salary_amount,omitempty"`
	WorkStartTime *string  `json:"work_start_time,omitempty"`
	WorkEndTime   *string  `json:"work_end_time,omitempty"`
	BreakHours    *float64 `json:"break_hours,omitempty" validate:"omitempty,gte=0,max=3"`
	OnboardDate   *string  `json:"onboard_date,omitempty" validate:"omitempty,isodate"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	if r.SalaryAmount != nil {
		if amount, err := decimal.NewFromString(*r.SalaryAmount); err != nil || amount.IsNegative() {
			errs = append(errs, validator.ValidationError{
				Field:   "salary_amount",
				Message: "salary_amount must be a non-negative number",
			})
		}
	}
	if r.WorkStartTime != nil {
		if _, err := civil.ParseTimeOfDay(*r.WorkStartTime); err != nil {
			errs = append(errs, validator.ValidationError{Field: "work_start_time", Message: err.Error()})
		}
	}
	if r.WorkEndTime != nil {
		if _, err := civil.ParseTimeOfDay(*r.WorkEndTime); err != nil {
			errs = append(errs, validator.ValidationError{Field: "work_end_time", Message: err.Error()})
		}
	}
	if r.WorkStartTime != nil && r.WorkEndTime != nil && len(errs) == 0 {
		errs = append(errs, validateSchedule(*r.WorkStartTime, *r.WorkEndTime)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ChangesRole reports whether the update touches the role column.
func (r *UpdateEmployeeRequest) ChangesRole() bool {
	return r.Role != nil && user.Role(*r.Role).Valid()
}

func validateSchedule(start, end string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	s, err := civil.ParseTimeOfDay(start)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "work_start_time", Message: err.Error()})
	}
	e, err := civil.ParseTimeOfDay(end)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "work_end_time", Message: err.Error()})
	}
	if len(errs) == 0 && !s.Before(e) {
		errs = append(errs, validator.ValidationError{
			Field:   "work_end_time",
			Message: "work_end_time must be after work_start_time",
		})
	}
	return errs
}

type EmployeeFilter struct {
	Search   *string `json:"search,omitempty"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=employee manager super_admin"`
	IsActive *bool   `json:"is_active,omitempty"`

	// Pagination
	Page  int `json:"page" validate:"gte=0"`
	Limit int `json:"limit" validate:"gte=0,max=100"`
}

func (f *EmployeeFilter) Validate() error {
	if err := validator.Struct(f); err != nil {
		return err
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	return nil
}

type ListEmployeeResponse struct {
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int64              `json:"total_pages"`
	Employees  []EmployeeResponse `json:"employees"`
}
