package attendance

import (
	"strings"
	"time"
)

type Attendance struct {
	ID         string
	EmployeeID string
	WorkDate   time.Time
	ClockIn    time.Time
	ClockOut   *time.Time
	WorkHours  float64
	BreakHours float64
	Status     Status
	IsEdited   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// DTO / Join
	EmployeeName *string
}

// Status is a space separated set of flags; an empty set is "normal".
type Status string

const (
	StatusNormal         Status = "normal"
	StatusLate           Status = "late"
	StatusEarlyLeave     Status = "early_leave"
	StatusLateEarlyLeave Status = "late early_leave"
)

func (s Status) IsLate() bool {
	return strings.Contains(string(s), string(StatusLate))
}

func (s Status) IsEarlyLeave() bool {
	return strings.Contains(string(s), string(StatusEarlyLeave))
}

// EditLog is an append-only record of a manual correction.
type EditLog struct {
	ID            string
	AttendanceID  string
	EditorID      string
	OldClockIn    time.Time
	NewClockIn    time.Time
	OldClockOut   *time.Time
	NewClockOut   *time.Time
	OldBreakHours float64
	NewBreakHours float64
	Reason        string
	CreatedAt     time.Time

	// DTO / Join
	EditorName *string
}
