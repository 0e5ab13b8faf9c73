package annualleave

import (
	"context"
	"time"
)

// AccrualJob grants statutory annual leave on grant dates. Safe to run
// repeatedly on the same civil day.
type AccrualJob interface {
	// Run evaluates every active employee against today's civil date.
	Run(ctx context.Context) (RunResult, error)
	// RunOn evaluates every active employee against the given civil date.
	RunOn(ctx context.Context, today time.Time) (RunResult, error)
}

type AnnualLeaveService interface {
	// TriggerAccrual runs the accrual job on behalf of a manager.
	TriggerAccrual(ctx context.Context) (RunResultResponse, error)
	// TriggerScheduledAccrual runs the job for the external scheduler; the
	// caller is authenticated by the shared secret at the edge.
	TriggerScheduledAccrual(ctx context.Context) (RunResultResponse, error)
	// GetLogs lists an employee's grant and reset history.
	GetLogs(ctx context.Context, employeeID string) ([]LogResponse, error)
	// Preview returns the entitlement of an employee on a date without
	// writing anything.
	Preview(ctx context.Context, employeeID string, date string) (EntitlementResponse, error)
}
