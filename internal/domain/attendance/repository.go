package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// Create inserts a record; a second record for the same work date
	// returns ErrAlreadyClockedIn.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByEmployeeAndDate retrieves the record of one work date.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) (Attendance, error)

	// Update overwrites clock times, hours, status and the edited flag.
	Update(ctx context.Context, attendance Attendance) error

	// ListByEmployeeAndRange returns records with work_date in [from, to].
	ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error)

	// List retrieves attendance records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)

	CreateEditLog(ctx context.Context, log EditLog) error
	ListEditLogs(ctx context.Context, attendanceID string) ([]EditLog, error)
}
