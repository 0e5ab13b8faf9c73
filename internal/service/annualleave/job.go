package annualleave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/annualleave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/lock"
)

// runLockTTL outlives any realistic batch; the per-employee guard stays
// authoritative if the lock expires early.
const runLockTTL = 30 * time.Minute

type AccrualJobImpl struct {
	tx database.Transactor
	employee.EmployeeRepository
	annualleave.LogRepository
	leave.BalanceRepository
	notifier notification.Notifier
	clock    civil.Clock
	locker   lock.Locker
}

func NewAccrualJob(
	tx database.Transactor,
	employeeRepository employee.EmployeeRepository,
	logRepository annualleave.LogRepository,
	balanceRepository leave.BalanceRepository,
	notifier notification.Notifier,
	clock civil.Clock,
	locker lock.Locker,
) annualleave.AccrualJob {
	return &AccrualJobImpl{
		tx:                 tx,
		EmployeeRepository: employeeRepository,
		LogRepository:      logRepository,
		BalanceRepository:  balanceRepository,
		notifier:           notifier,
		clock:              clock,
		locker:             locker,
	}
}

// Run implements annualleave.AccrualJob.
func (j *AccrualJobImpl) Run(ctx context.Context) (annualleave.RunResult, error) {
	return j.RunOn(ctx, j.clock.Today())
}

// RunOn implements annualleave.AccrualJob.
func (j *AccrualJobImpl) RunOn(ctx context.Context, today time.Time) (annualleave.RunResult, error) {
	today = civil.Day(today)
	started := time.Now()

	// The run lock only keeps schedulers apart. If the lock store is down
	// the row locks in accrue still grant at most once per day.
	release, err := j.locker.Acquire(ctx, "lock:annual-leave:"+today.Format(civil.DateLayout), runLockTTL)
	switch {
	case errors.Is(err, lock.ErrLocked):
		return annualleave.RunResult{}, annualleave.ErrAccrualAlreadyRunning
	case err != nil:
		slog.Warn("accrual run lock unavailable, continuing without it", "date", today.Format(civil.DateLayout), "error", err)
	default:
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("failed to release accrual lock", "error", err)
			}
		}()
	}

	employees, err := j.EmployeeRepository.ListActive(ctx)
	if err != nil {
		return annualleave.RunResult{}, fmt.Errorf("failed to list active employees: %w", err)
	}

	result := annualleave.RunResult{Date: today}
	for _, emp := range employees {
		if emp.OnboardDate == nil {
			continue
		}

		res := j.accrue(ctx, emp.ID, today)
		res.FullName = emp.FullName
		result.Add(res)

		switch res.Outcome {
		case annualleave.OutcomeGranted:
			j.notifyGranted(ctx, res)
		case annualleave.OutcomeFailed:
			slog.Error("annual leave accrual failed", "employee_id", emp.ID, "date", today.Format(civil.DateLayout), "error", res.Error)
		}
	}
	result.Duration = time.Since(started)

	slog.Info("annual leave accrual finished",
		"date", today.Format(civil.DateLayout),
		"granted", result.Granted,
		"skipped", result.Skipped,
		"not_due", result.NotDue,
		"failed", result.Failed,
		"duration", result.Duration,
	)

	return result, nil
}

// accrue evaluates one employee in its own transaction. The employee row
// is locked before last_reset_date is compared, so concurrent runs grant
// at most once per day.
func (j *AccrualJobImpl) accrue(ctx context.Context, employeeID string, today time.Time) annualleave.EmployeeResult {
	res := annualleave.EmployeeResult{EmployeeID: employeeID}

	err := j.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := j.EmployeeRepository.GetByIDForUpdate(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to lock employee: %w", err)
		}
		if !emp.IsActive || emp.OnboardDate == nil {
			res.Outcome = annualleave.OutcomeNotDue
			return nil
		}
		if emp.LastResetDate != nil && civil.SameDay(*emp.LastResetDate, today) {
			res.Outcome = annualleave.OutcomeSkippedAlreadyRun
			return nil
		}

		ent := annualleave.CalculateEntitlement(*emp.OnboardDate, today)
		res.TenureYears = ent.TenureYears
		if !ent.IsGrantDate {
			res.Outcome = annualleave.OutcomeNotDue
			return nil
		}

		if remaining := emp.AnnualLeaveTotal - emp.AnnualLeaveUsed; remaining > 0 {
			if err := j.LogRepository.Create(ctx, annualleave.Log{
				EmployeeID:  emp.ID,
				TenureYear:  ent.TenureYears,
				Action:      annualleave.ActionReset,
				DaysChange:  -remaining,
				Description: fmt.Sprintf("Reset %.1f unused day(s) on %s", remaining, today.Format(civil.DateLayout)),
			}); err != nil {
				return fmt.Errorf("failed to write reset log: %w", err)
			}
		}

		if err := j.EmployeeRepository.UpdateAnnualLeave(ctx, emp.ID, ent.Days, 0, today); err != nil {
			return fmt.Errorf("failed to update annual leave: %w", err)
		}

		if err := j.LogRepository.Create(ctx, annualleave.Log{
			EmployeeID:  emp.ID,
			TenureYear:  ent.TenureYears,
			Action:      annualleave.ActionGrant,
			DaysChange:  ent.Days,
			Description: grantDescription(ent),
		}); err != nil {
			return fmt.Errorf("failed to write grant log: %w", err)
		}

		if err := j.BalanceRepository.UpsertTotal(ctx, emp.ID, today.Year(), ent.Days); err != nil {
			return fmt.Errorf("failed to update leave balance: %w", err)
		}

		res.Outcome = annualleave.OutcomeGranted
		res.Days = ent.Days
		return nil
	})
	if err != nil {
		return annualleave.EmployeeResult{
			EmployeeID: employeeID,
			Outcome:    annualleave.OutcomeFailed,
			Error:      err.Error(),
		}
	}
	return res
}

func grantDescription(ent annualleave.Entitlement) string {
	if ent.TenureYears < 1 {
		return fmt.Sprintf("Granted %.0f day(s) at six months of service", ent.Days)
	}
	return fmt.Sprintf("Granted %.0f day(s) for %.0f year(s) of service", ent.Days, ent.TenureYears)
}

func (j *AccrualJobImpl) notifyGranted(ctx context.Context, res annualleave.EmployeeResult) {
	j.notifier.Notify(ctx, notification.NotifyRequest{
		RecipientID: res.EmployeeID,
		Type:        notification.TypeAnnualLeaveGranted,
		Title:       "Annual leave granted",
		Message:     fmt.Sprintf("You have been granted %.0f day(s) of annual leave", res.Days),
		Link:        "/leaves/balance",
		Data: map[string]interface{}{
			"days":         res.Days,
			"tenure_years": res.TenureYears,
		},
	})
}
