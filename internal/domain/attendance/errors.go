package attendance

import "errors"

// Attendance domain errors
var (
	// Clock-in errors
	ErrAlreadyClockedIn  = errors.New("you have already clocked in today")
	ErrNotClockedIn      = errors.New("you have not clocked in today")
	ErrAlreadyClockedOut = errors.New("you have already clocked out")
	ErrInvalidBreakHours = errors.New("break hours must be one of 0, 0.5, 1, 1.5, 2, 2.5, 3")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrUnauthorized       = errors.New("unauthorized to access this attendance record")
	ErrClockOutBeforeIn   = errors.New("clock-out cannot be before clock-in")
)
