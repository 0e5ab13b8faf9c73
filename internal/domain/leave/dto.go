package leave

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

// ========================================
// LEAVE REQUEST DTOs
// ========================================

type ApplyLeaveRequest struct {
	LeaveType string  `json:"leave_type"`
	StartDate string  `json:"start_date"` // YYYY-MM-DD
	EndDate   string  `json:"end_date"`   // YYYY-MM-DD, inclusive
	Days      float64 `json:"days"`
	Reason    string  `json:"reason"`

	// Parsed by Validate
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (r *ApplyLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.LeaveType) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type is required",
		})
	} else if !LeaveType(r.LeaveType).Valid() {
		names := make([]string, 0, len(LeaveTypes))
		for _, lt := range LeaveTypes {
			names = append(names, string(lt))
		}
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type must be one of: " + strings.Join(names, ", "),
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if startOK && endOK && start.After(end) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if r.Days <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "days",
			Message: "days must be greater than 0",
		})
	} else if !validator.IsHalfDayMultiple(r.Days) {
		errs = append(errs, validator.ValidationError{
			Field:   "days",
			Message: "days must be a multiple of 0.5",
		})
	} else if startOK && endOK && !start.After(end) {
		if span := end.Sub(start).Hours()/24 + 1; r.Days > span {
			errs = append(errs, validator.ValidationError{
				Field:   "days",
				Message: "days cannot exceed the number of calendar days in the range",
			})
		}
	}

	if len(r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	r.Start, r.End = start, end
	return nil
}

type ReviewRequest struct {
	Note *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

func (r *ReviewRequest) Validate() error {
	return validator.Struct(r)
}

type LeaveRequestResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName *string `json:"employee_name,omitempty"`
	LeaveType    string  `json:"leave_type"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Days         float64 `json:"days"`
	Reason       string  `json:"reason"`
	Status       string  `json:"status"`
	ReviewedBy   *string `json:"reviewed_by,omitempty"`
	ReviewedAt   *string `json:"reviewed_at,omitempty"`
	ReviewNote   *string `json:"review_note,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func ToLeaveRequestResponse(r LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		LeaveType:    string(r.LeaveType),
		StartDate:    r.StartDate.Format("2006-01-02"),
		EndDate:      r.EndDate.Format("2006-01-02"),
		Days:         r.Days,
		Reason:       r.Reason,
		Status:       string(r.Status),
		ReviewedBy:   r.ReviewedBy,
		ReviewNote:   r.ReviewNote,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ReviewedAt != nil {
		s := r.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	return resp
}

type LeaveRequestFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	LeaveType  *string `json:"leave_type,omitempty"`
	Status     *string `json:"status,omitempty"`
	Year       *int    `json:"year,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *LeaveRequestFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 || f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be between 1 and 100"})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}

	if f.Status != nil {
		valid := []string{
			string(LeaveRequestStatusPending),
			string(LeaveRequestStatusApproved),
			string(LeaveRequestStatusRejected),
			string(LeaveRequestStatusCancelled),
		}
		if !validator.IsInSlice(*f.Status, valid) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: " + strings.Join(valid, ", "),
			})
		}
	}
	if f.LeaveType != nil && !LeaveType(*f.LeaveType).Valid() {
		errs = append(errs, validator.ValidationError{Field: "leave_type", Message: "invalid leave_type"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListLeaveRequestResponse struct {
	TotalCount int64                  `json:"total_count"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int64                  `json:"total_pages"`
	Requests   []LeaveRequestResponse `json:"requests"`
}

// ========================================
// CANCELLATION DTOs
// ========================================

type CreateCancellationRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (r *CreateCancellationRequest) Validate() error {
	return validator.Struct(r)
}

type CancellationResponse struct {
	ID             string                `json:"id"`
	LeaveRequestID string                `json:"leave_request_id"`
	EmployeeID     string                `json:"employee_id"`
	EmployeeName   *string               `json:"employee_name,omitempty"`
	Reason         string                `json:"reason"`
	Status         string                `json:"status"`
	ReviewedBy     *string               `json:"reviewed_by,omitempty"`
	ReviewedAt     *string               `json:"reviewed_at,omitempty"`
	Leave          *LeaveRequestResponse `json:"leave,omitempty"`
	CreatedAt      string                `json:"created_at"`
}

func ToCancellationResponse(c CancellationRequest) CancellationResponse {
	resp := CancellationResponse{
		ID:             c.ID,
		LeaveRequestID: c.LeaveRequestID,
		EmployeeID:     c.EmployeeID,
		EmployeeName:   c.EmployeeName,
		Reason:         c.Reason,
		Status:         string(c.Status),
		ReviewedBy:     c.ReviewedBy,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
	if c.ReviewedAt != nil {
		s := c.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	if c.Leave != nil {
		l := ToLeaveRequestResponse(*c.Leave)
		resp.Leave = &l
	}
	return resp
}

// ========================================
// BALANCE DTOs
// ========================================

type BalanceResponse struct {
	EmployeeID string  `json:"employee_id"`
	Year       int     `json:"year"`
	TotalDays  float64 `json:"total_days"`
	Reserved   float64 `json:"reserved_days"`
	Remaining  float64 `json:"remaining_days"`
}
