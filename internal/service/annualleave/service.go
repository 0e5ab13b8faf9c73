package annualleave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/annualleave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
)

type AnnualLeaveServiceImpl struct {
	job annualleave.AccrualJob
	annualleave.LogRepository
	employee.EmployeeRepository
	clock civil.Clock
}

func NewAnnualLeaveService(job annualleave.AccrualJob, logRepository annualleave.LogRepository, employeeRepository employee.EmployeeRepository, clock civil.Clock) annualleave.AnnualLeaveService {
	return &AnnualLeaveServiceImpl{
		job:                job,
		LogRepository:      logRepository,
		EmployeeRepository: employeeRepository,
		clock:              clock,
	}
}

// TriggerAccrual implements annualleave.AnnualLeaveService.
func (s *AnnualLeaveServiceImpl) TriggerAccrual(ctx context.Context) (annualleave.RunResultResponse, error) {
	actor, err := user.RequireManager(ctx)
	if err != nil {
		return annualleave.RunResultResponse{}, err
	}

	slog.Info("annual leave accrual triggered manually", "employee_id", actor.EmployeeID)
	result, err := s.job.Run(ctx)
	if err != nil {
		return annualleave.RunResultResponse{}, err
	}
	return annualleave.ToRunResultResponse(result), nil
}

// TriggerScheduledAccrual implements annualleave.AnnualLeaveService.
func (s *AnnualLeaveServiceImpl) TriggerScheduledAccrual(ctx context.Context) (annualleave.RunResultResponse, error) {
	result, err := s.job.Run(ctx)
	if err != nil {
		return annualleave.RunResultResponse{}, err
	}
	return annualleave.ToRunResultResponse(result), nil
}

func requireSelfOrManager(ctx context.Context, employeeID string) error {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !actor.IsManager() && actor.EmployeeID != employeeID {
		return user.ErrInsufficientPermissions
	}
	return nil
}

// GetLogs implements annualleave.AnnualLeaveService.
func (s *AnnualLeaveServiceImpl) GetLogs(ctx context.Context, employeeID string) ([]annualleave.LogResponse, error) {
	if err := requireSelfOrManager(ctx, employeeID); err != nil {
		return nil, err
	}

	logs, err := s.LogRepository.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list annual leave logs: %w", err)
	}

	resp := make([]annualleave.LogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, annualleave.ToLogResponse(l))
	}
	return resp, nil
}

// Preview implements annualleave.AnnualLeaveService. An empty date means
// today in the configured timezone.
func (s *AnnualLeaveServiceImpl) Preview(ctx context.Context, employeeID string, date string) (annualleave.EntitlementResponse, error) {
	if err := requireSelfOrManager(ctx, employeeID); err != nil {
		return annualleave.EntitlementResponse{}, err
	}

	target := s.clock.Today()
	if date != "" {
		d, err := civil.ParseDate(date)
		if err != nil {
			return annualleave.EntitlementResponse{}, annualleave.ErrInvalidRunDate
		}
		target = d
	}
	target = civil.Day(target)

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return annualleave.EntitlementResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.OnboardDate == nil {
		return annualleave.EntitlementResponse{}, employee.ErrOnboardDateRequired
	}

	ent := annualleave.CalculateEntitlement(*emp.OnboardDate, target)
	return annualleave.EntitlementResponse{
		EmployeeID:         emp.ID,
		Date:               target.Format(civil.DateLayout),
		Days:               ent.Days,
		TenureYears:        ent.TenureYears,
		IsGrantDate:        ent.IsGrantDate,
		CurrentEntitlement: annualleave.CurrentEntitlement(*emp.OnboardDate, target),
	}, nil
}
