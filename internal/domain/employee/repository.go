package employee

import (
	"context"
	"time"
)

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, error)
	// GetByIDForUpdate locks the row; only meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (Employee, error)
	Create(ctx context.Context, e Employee) (Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, int64, error)
	ListActive(ctx context.Context) ([]Employee, error)
	ListActiveManagers(ctx context.Context) ([]Employee, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) error
	UpdateAnnualLeave(ctx context.Context, id string, total, used float64, lastResetDate time.Time) error
	SetAnnualLeaveUsed(ctx context.Context, id string, used float64) error
	Deactivate(ctx context.Context, id string) error
}
