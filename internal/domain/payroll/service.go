package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
)

// Calculator derives a month's salary. It never writes.
type Calculator interface {
	// Calculate returns the frozen snapshot of a settled month unless
	// forceLive is set; otherwise figures are recomputed from attendance
	// and approved leave.
	Calculate(ctx context.Context, employeeID string, ym civil.YearMonth, forceLive bool) (SalaryBreakdown, error)
}

// SalaryService governs the live/settled lifecycle of salary records.
type SalaryService interface {
	// ========== READ ==========
	GetSalary(ctx context.Context, employeeID, yearMonth string) (SalaryResponse, error)
	GetMySalary(ctx context.Context, yearMonth string) (SalaryResponse, error)
	ListSalaries(ctx context.Context, yearMonth string) (SalaryOverviewResponse, error)

	// ========== LIVE CACHE ==========
	// SaveLive persists the current live figures; a settled month is left
	// untouched and reported as not saved.
	SaveLive(ctx context.Context, employeeID, yearMonth string) (bool, error)

	// ========== SETTLEMENT ==========
	Settle(ctx context.Context, employeeID, yearMonth string) (SalaryResponse, error)
	Resettle(ctx context.Context, employeeID, yearMonth string) (SalaryResponse, error)
	UpdateBonus(ctx context.Context, employeeID, yearMonth string, req UpdateBonusRequest) (SalaryResponse, error)
}
