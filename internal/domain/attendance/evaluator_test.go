package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/stretchr/testify/assert"
)

func tod(h, m, s int) *civil.TimeOfDay {
	t := civil.NewTimeOfDay(h, m, s)
	return &t
}

func TestDetermineStatus(t *testing.T) {
	start := civil.NewTimeOfDay(9, 0, 0)
	end := civil.NewTimeOfDay(18, 0, 0)

	tests := []struct {
		name     string
		clockIn  *civil.TimeOfDay
		clockOut *civil.TimeOfDay
		want     Status
	}{
		{"on time, no clock-out", tod(9, 0, 0), nil, StatusNormal},
		{"one second late", tod(9, 0, 1), nil, StatusLate},
		{"early but no clock-out", tod(8, 50, 0), nil, StatusNormal},
		{"full day", tod(8, 55, 0), tod(18, 0, 0), StatusNormal},
		{"left early", tod(9, 0, 0), tod(17, 59, 59), StatusEarlyLeave},
		{"late and early", tod(9, 30, 0), tod(17, 0, 0), StatusLateEarlyLeave},
		{"stayed late", tod(9, 30, 0), tod(19, 0, 0), StatusLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineStatus(tt.clockIn, tt.clockOut, start, end))
		})
	}
}

func TestStatusFlags(t *testing.T) {
	assert.True(t, StatusLateEarlyLeave.IsLate())
	assert.True(t, StatusLateEarlyLeave.IsEarlyLeave())
	assert.False(t, StatusNormal.IsLate())
	assert.False(t, StatusLate.IsEarlyLeave())
}

func TestCalculateWorkHours(t *testing.T) {
	in := time.Date(2026, 2, 13, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		clockOut time.Time
		breakHrs float64
		want     float64
	}{
		{"nine hours minus one break", in.Add(9 * time.Hour), 1, 8},
		{"no break", in.Add(90 * time.Minute), 0, 1.5},
		{"rounded to two decimals", in.Add(8*time.Hour + 20*time.Minute), 0, 8.33},
		{"break longer than shift", in.Add(30 * time.Minute), 1, 0},
		{"clock-out before clock-in", in.Add(-time.Hour), 0, 0},
		{"zero length", in, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateWorkHours(in, tt.clockOut, tt.breakHrs)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}
