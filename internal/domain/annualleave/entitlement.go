package annualleave

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
)

// HalfYearDays is granted once, six calendar months after onboarding.
const HalfYearDays = 3

// MaxDays caps the statutory entitlement.
const MaxDays = 30

// Entitlement is the result of evaluating an onboard date on a target date.
type Entitlement struct {
	Days        float64
	TenureYears float64
	IsGrantDate bool
}

// CalculateEntitlement decides whether target is a grant date for an
// employee onboarded on onboard, and how many days that grant is worth.
// Six months after onboarding grants 3 days; each anniversary grants the
// banded amount for the completed years. Feb 29 anniversaries fall on
// Feb 28 in non-leap years.
func CalculateEntitlement(onboard, target time.Time) Entitlement {
	onboard, target = civil.Day(onboard), civil.Day(target)

	if civil.SameDay(civil.AddMonths(onboard, 6), target) {
		return Entitlement{Days: HalfYearDays, TenureYears: 0.5, IsGrantDate: true}
	}

	years := civil.WholeYears(onboard, target)
	if years >= 1 && civil.IsAnniversary(onboard, target) {
		return Entitlement{Days: BandedDays(years), TenureYears: float64(years), IsGrantDate: true}
	}

	return Entitlement{Days: 0, TenureYears: tenure(onboard, target), IsGrantDate: false}
}

// BandedDays maps completed service years to the anniversary entitlement.
func BandedDays(years int) float64 {
	switch {
	case years < 1:
		return 0
	case years < 2:
		return 7
	case years < 3:
		return 10
	case years < 5:
		return 14
	case years < 10:
		return 15
	}
	days := 15 + (years - 10)
	if days > MaxDays {
		days = MaxDays
	}
	return float64(days)
}

// CurrentEntitlement is the entitlement in force on target: the amount of
// the most recent grant, or zero before the six-month mark. It seeds
// balances that have never been written by the accrual job.
func CurrentEntitlement(onboard, target time.Time) float64 {
	onboard, target = civil.Day(onboard), civil.Day(target)
	if years := civil.WholeYears(onboard, target); years >= 1 {
		return BandedDays(years)
	}
	if !target.Before(civil.AddMonths(onboard, 6)) {
		return HalfYearDays
	}
	return 0
}

func tenure(onboard, target time.Time) float64 {
	if years := civil.WholeYears(onboard, target); years >= 1 {
		return float64(years)
	}
	if !target.Before(civil.AddMonths(onboard, 6)) {
		return 0.5
	}
	return 0
}
