package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// ClockIn opens today's record for the caller
	ClockIn(ctx context.Context) (AttendanceResponse, error)

	// ClockOut closes today's record for the caller
	ClockOut(ctx context.Context, req ClockOutRequest) (AttendanceResponse, error)

	// GetMyAttendance lists the caller's records for a month
	GetMyAttendance(ctx context.Context, yearMonth string) ([]AttendanceResponse, error)

	// ListAttendance retrieves attendance records with filters (manager+)
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// UpdateAttendance corrects a record and appends an edit log (manager+)
	UpdateAttendance(ctx context.Context, id string, req UpdateAttendanceRequest) (AttendanceResponse, error)

	// GetEditLogs lists the corrections of a record (manager+)
	GetEditLogs(ctx context.Context, id string) ([]EditLogResponse, error)
}
