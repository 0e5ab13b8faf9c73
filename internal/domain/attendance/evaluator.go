package attendance

import (
	"math"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
)

// DetermineStatus flags late when clock-in is strictly after workStart and
// early_leave when a clock-out exists and is strictly before workEnd.
func DetermineStatus(clockIn, clockOut *civil.TimeOfDay, workStart, workEnd civil.TimeOfDay) Status {
	late := clockIn != nil && clockIn.After(workStart)
	early := clockOut != nil && clockOut.Before(workEnd)

	switch {
	case late && early:
		return StatusLateEarlyLeave
	case late:
		return StatusLate
	case early:
		return StatusEarlyLeave
	default:
		return StatusNormal
	}
}

// CalculateWorkHours returns (clockOut - clockIn) minus the break, in hours,
// floored at zero and rounded to two decimals.
func CalculateWorkHours(clockIn, clockOut time.Time, breakHours float64) float64 {
	if clockOut.Before(clockIn) {
		return 0
	}
	hours := clockOut.Sub(clockIn).Hours() - breakHours
	if hours < 0 {
		return 0
	}
	return Round2(hours)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
