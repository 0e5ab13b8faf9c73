package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/shopspring/decimal"
)

type Employee struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Role         user.Role

	SalaryType   SalaryType
	SalaryAmount decimal.Decimal // hourly rate or monthly base

	WorkStartTime civil.TimeOfDay
	WorkEndTime   civil.TimeOfDay
	// BreakHours is the fixed daily break of monthly employees.
	BreakHours float64

	OnboardDate      *time.Time
	AnnualLeaveTotal float64
	AnnualLeaveUsed  float64
	LastResetDate    *time.Time

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SalaryType string

const (
	SalaryTypeHourly  SalaryType = "hourly"
	SalaryTypeMonthly SalaryType = "monthly"
)

func (s SalaryType) Valid() bool {
	return s == SalaryTypeHourly || s == SalaryTypeMonthly
}

// RemainingAnnualLeave is total minus used, never negative.
func (e Employee) RemainingAnnualLeave() float64 {
	if r := e.AnnualLeaveTotal - e.AnnualLeaveUsed; r > 0 {
		return r
	}
	return 0
}

// HourlyBreakOptions is the set of per-shift breaks an hourly employee may pick.
var HourlyBreakOptions = []float64{0, 0.5, 1.0, 1.5, 2.0, 2.5, 3.0}

func IsHourlyBreakOption(h float64) bool {
	for _, opt := range HourlyBreakOptions {
		if opt == h {
			return true
		}
	}
	return false
}
