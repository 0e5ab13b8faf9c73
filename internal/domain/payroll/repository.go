package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalaryRepository defines data access methods for salary_records.
type SalaryRepository interface {
	// Get returns ErrSalaryRecordNotFound when the month has no row.
	Get(ctx context.Context, employeeID, yearMonth string) (SalaryRecord, error)

	// GetForUpdate creates the row if missing and locks it. Must run in a
	// transaction.
	GetForUpdate(ctx context.Context, employeeID, yearMonth string) (SalaryRecord, error)

	// SaveLive upserts the live cache. It never touches a settled row and
	// reports whether a row was written.
	SaveLive(ctx context.Context, f SalaryFigures) (bool, error)

	// Settle freezes the row if it is still live; otherwise ErrAlreadySettled.
	Settle(ctx context.Context, f SalaryFigures, paidAt time.Time, paidBy string) error

	// Unsettle clears the snapshot if the row is settled; otherwise ErrNotSettled.
	Unsettle(ctx context.Context, employeeID, yearMonth string) error

	// UpdateBonus sets bonus and notes on a live row; otherwise ErrSettledReadOnly.
	UpdateBonus(ctx context.Context, employeeID, yearMonth string, bonus decimal.Decimal, notes *string) error

	ListByMonth(ctx context.Context, yearMonth string) ([]SalaryRecord, error)
}
