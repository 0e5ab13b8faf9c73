package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type ClockOutRequest struct {
	// BreakHours is only honoured for hourly employees; monthly employees
	// use the break configured on their profile.
	BreakHours *float64 `json:"break_hours,omitempty"`
}

type AttendanceResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName *string `json:"employee_name,omitempty"`
	WorkDate     string  `json:"work_date"`
	ClockIn      string  `json:"clock_in"`
	ClockOut     *string `json:"clock_out,omitempty"`
	WorkHours    float64 `json:"work_hours"`
	BreakHours   float64 `json:"break_hours"`
	Status       string  `json:"status"`
	IsLate       bool    `json:"is_late"`
	IsEarlyLeave bool    `json:"is_early_leave"`
	IsEdited     bool    `json:"is_edited"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func ToResponse(att Attendance, loc *time.Location) AttendanceResponse {
	resp := AttendanceResponse{
		ID:           att.ID,
		EmployeeID:   att.EmployeeID,
		EmployeeName: att.EmployeeName,
		WorkDate:     att.WorkDate.Format("2006-01-02"),
		ClockIn:      att.ClockIn.In(loc).Format(time.RFC3339),
		WorkHours:    att.WorkHours,
		BreakHours:   att.BreakHours,
		Status:       string(att.Status),
		IsLate:       att.Status.IsLate(),
		IsEarlyLeave: att.Status.IsEarlyLeave(),
		IsEdited:     att.IsEdited,
		CreatedAt:    att.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    att.UpdatedAt.Format(time.RFC3339),
	}
	if att.ClockOut != nil {
		s := att.ClockOut.In(loc).Format(time.RFC3339)
		resp.ClockOut = &s
	}
	return resp
}

type UpdateAttendanceRequest struct {
	ClockIn    *string  `json:"clock_in,omitempty"`  // RFC3339 or HH:MM[:SS] on the work date
	ClockOut   *string  `json:"clock_out,omitempty"` // RFC3339 or HH:MM[:SS] on the work date
	BreakHours *float64 `json:"break_hours,omitempty"`
	Reason     string   `json:"reason"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if r.ClockIn == nil && r.ClockOut == nil && r.BreakHours == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "clock_in",
			Message: "at least one of clock_in, clock_out or break_hours must be provided",
		})
	}

	if r.BreakHours != nil && (*r.BreakHours < 0 || *r.BreakHours > 3) {
		errs = append(errs, validator.ValidationError{
			Field:   "break_hours",
			Message: "break_hours must be between 0 and 3",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type EditLogResponse struct {
	ID            string  `json:"id"`
	AttendanceID  string  `json:"attendance_id"`
	EditorID      string  `json:"editor_id"`
	EditorName    *string `json:"editor_name,omitempty"`
	OldClockIn    string  `json:"old_clock_in"`
	NewClockIn    string  `json:"new_clock_in"`
	OldClockOut   *string `json:"old_clock_out,omitempty"`
	NewClockOut   *string `json:"new_clock_out,omitempty"`
	OldBreakHours float64 `json:"old_break_hours"`
	NewBreakHours float64 `json:"new_break_hours"`
	Reason        string  `json:"reason"`
	CreatedAt     string  `json:"created_at"`
}

func formatOptional(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

func ToEditLogResponse(l EditLog, loc *time.Location) EditLogResponse {
	return EditLogResponse{
		ID:            l.ID,
		AttendanceID:  l.AttendanceID,
		EditorID:      l.EditorID,
		EditorName:    l.EditorName,
		OldClockIn:    l.OldClockIn.In(loc).Format(time.RFC3339),
		NewClockIn:    l.NewClockIn.In(loc).Format(time.RFC3339),
		OldClockOut:   formatOptional(l.OldClockOut, loc),
		NewClockOut:   formatOptional(l.NewClockOut, loc),
		OldBreakHours: l.OldBreakHours,
		NewBreakHours: l.NewBreakHours,
		Reason:        l.Reason,
		CreatedAt:     l.CreatedAt.Format(time.RFC3339),
	}
}

type AttendanceFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		validStatuses := []string{"late", "early_leave", "normal"}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: normal, late, early_leave",
			})
		}
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // newest first
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int64                `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}
