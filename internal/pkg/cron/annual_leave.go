package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/annualleave"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
)

// AnnualLeaveJobs contains annual-leave cron jobs
type AnnualLeaveJobs struct {
	job annualleave.AccrualJob
}

func NewAnnualLeaveJobs(job annualleave.AccrualJob) *AnnualLeaveJobs {
	return &AnnualLeaveJobs{job: job}
}

// RegisterJobs registers the daily accrual at spec.
func (j *AnnualLeaveJobs) RegisterJobs(scheduler *Scheduler, spec string) error {
	return scheduler.AddJob("annual_leave_accrual", spec, j.AccrueAnnualLeave)
}

// AccrueAnnualLeave runs the accrual for today. A run already held by
// another instance is not an error.
func (j *AnnualLeaveJobs) AccrueAnnualLeave(ctx context.Context) error {
	slog.Info("Cron: Starting annual leave accrual job")

	result, err := j.job.Run(ctx)
	if errors.Is(err, annualleave.ErrAccrualAlreadyRunning) {
		slog.Info("Cron: Annual leave accrual already running elsewhere, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run annual leave accrual: %w", err)
	}

	if result.Failed > 0 {
		return fmt.Errorf("annual leave accrual for %s failed for %d employee(s)", result.Date.Format(civil.DateLayout), result.Failed)
	}
	return nil
}
