package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// overviewConcurrency bounds the per-employee calculations of ListSalaries.
const overviewConcurrency = 8

type SalaryServiceImpl struct {
	tx database.Transactor
	payroll.SalaryRepository
	employee.EmployeeRepository
	calculator payroll.Calculator
	notifier   notification.Notifier
	clock      civil.Clock
	previews   singleflight.Group
}

func NewSalaryService(
	tx database.Transactor,
	salaryRepository payroll.SalaryRepository,
	employeeRepository employee.EmployeeRepository,
	calculator payroll.Calculator,
	notifier notification.Notifier,
	clock civil.Clock,
) payroll.SalaryService {
	return &SalaryServiceImpl{
		tx:                 tx,
		SalaryRepository:   salaryRepository,
		EmployeeRepository: employeeRepository,
		calculator:         calculator,
		notifier:           notifier,
		clock:              clock,
	}
}

func parseYearMonth(s string) (civil.YearMonth, error) {
	ym, err := civil.ParseYearMonth(s)
	if err != nil {
		return civil.YearMonth{}, payroll.ErrInvalidYearMonth
	}
	return ym, nil
}

// preview computes the breakdown shown to readers. Concurrent reads of the
// same month share one computation, so it must not die with whichever
// caller started it; each query is still bounded by the DB timeout.
func (s *SalaryServiceImpl) preview(ctx context.Context, employeeID string, ym civil.YearMonth) (payroll.SalaryBreakdown, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.previews.Do(employeeID+"|"+ym.String(), func() (interface{}, error) {
		return s.calculator.Calculate(shared, employeeID, ym, false)
	})
	if err != nil {
		return payroll.SalaryBreakdown{}, err
	}
	return v.(payroll.SalaryBreakdown), nil
}

// GetSalary implements payroll.SalaryService.
func (s *SalaryServiceImpl) GetSalary(ctx context.Context, employeeID, yearMonth string) (payroll.SalaryResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return payroll.SalaryResponse{}, err
	}
	if !actor.IsManager() && actor.EmployeeID != employeeID {
		return payroll.SalaryResponse{}, user.ErrInsufficientPermissions
	}

	ym, err := parseYearMonth(yearMonth)
	if err != nil {
		return payroll.SalaryResponse{}, err
	}

	b, err := s.preview(ctx, employeeID, ym)
	if err != nil {
		return payroll.SalaryResponse{}, fmt.Errorf("failed to calculate salary: %w", err)
	}

	// Refresh the live cache. A settled row is never touched by SaveLive.
	if !b.IsSettled() {
		if _, err := s.SalaryRepository.SaveLive(ctx, b.Figures); err != nil {
			slog.Warn("failed to refresh salary cache", "employee_id", employeeID, "year_month", ym.String(), "error", err)
		}
	}
	return payroll.ToSalaryResponse(b), nil
}

// GetMySalary implements payroll.SalaryService.
func (s *SalaryServiceImpl) GetMySalary(ctx context.Context, yearMonth string) (payroll.SalaryResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return payroll.SalaryResponse{}, err
	}
	return s.GetSalary(ctx, actor.EmployeeID, yearMonth)
}

// ListSalaries implements payroll.SalaryService. Settled months come from
// their stored snapshot, including employees deactivated since. One
// employee failing does not fail the overview; it is reported in
// FailedEmployees.
func (s *SalaryServiceImpl) ListSalaries(ctx context.Context, yearMonth string) (payroll.SalaryOverviewResponse, error) {
	if _, err := user.RequireManager(ctx); err != nil {
		return payroll.SalaryOverviewResponse{}, err
	}

	ym, err := parseYearMonth(yearMonth)
	if err != nil {
		return payroll.SalaryOverviewResponse{}, err
	}

	employees, err := s.EmployeeRepository.ListActive(ctx)
	if err != nil {
		return payroll.SalaryOverviewResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	records, err := s.SalaryRepository.ListByMonth(ctx, ym.String())
	if err != nil {
		return payroll.SalaryOverviewResponse{}, fmt.Errorf("failed to list salary records: %w", err)
	}
	settled := make(map[string]payroll.SalaryRecord, len(records))
	for _, rec := range records {
		if rec.IsSettled() {
			settled[rec.EmployeeID] = rec
		}
	}

	results := make([]*payroll.SalaryResponse, len(employees))
	var (
		mu     sync.Mutex
		failed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, emp := range employees {
		name := emp.FullName
		if rec, ok := settled[emp.ID]; ok {
			delete(settled, emp.ID)
			resp := payroll.ToSalaryResponse(rec.SettledBreakdown())
			resp.EmployeeName = &name
			results[i] = &resp
			continue
		}

		g.Go(func() error {
			b, err := s.preview(gctx, emp.ID, ym)
			if err != nil {
				slog.Error("failed to calculate salary", "employee_id", emp.ID, "year_month", ym.String(), "error", err)
				mu.Lock()
				failed = append(failed, emp.ID)
				mu.Unlock()
				return nil
			}
			resp := payroll.ToSalaryResponse(b)
			resp.EmployeeName = &name
			results[i] = &resp
			return nil
		})
	}
	_ = g.Wait()

	// settled rows left over belong to employees no longer active
	for _, rec := range records {
		if _, ok := settled[rec.EmployeeID]; !ok {
			continue
		}
		resp := payroll.ToSalaryResponse(rec.SettledBreakdown())
		resp.EmployeeName = rec.EmployeeName
		results = append(results, &resp)
	}

	overview := payroll.SalaryOverviewResponse{
		YearMonth:       ym.String(),
		TotalPayroll:    decimal.Zero,
		Salaries:        make([]payroll.SalaryResponse, 0, len(results)),
		FailedEmployees: failed,
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		overview.Salaries = append(overview.Salaries, *r)
		overview.TotalPayroll = overview.TotalPayroll.Add(r.TotalSalary)
		if r.Status == string(payroll.StatusSettled) {
			overview.SettledCount++
		}
	}
	overview.EmployeeCount = len(overview.Salaries)

	return overview, nil
}

// SaveLive implements payroll.SalaryService.
func (s *SalaryServiceImpl) SaveLive(ctx context.Context, employeeID, yearMonth string) (bool, error) {
	if _, err := user.RequireManager(ctx); err != nil {
		return false, err
	}
	ym, err := parseYearMonth(yearMonth)
	if err != nil {
		return false, err
	}

	b, err := s.calculator.Calculate(ctx, employeeID, ym, false)
	if err != nil {
		return false, fmt.Errorf("failed to calculate salary: %w", err)
	}
	if b.IsSettled() {
		return false, nil
	}

	saved, err := s.SalaryRepository.SaveLive(ctx, b.Figures)
	if err != nil {
		return false, fmt.Errorf("failed to save salary record: %w", err)
	}
	return saved, nil
}

// Settle implements payroll.SalaryService. The row is locked before the
// guard is checked so two concurrent settlements cannot both pass it.
func (s *SalaryServiceImpl) Settle(ctx context.Context, employeeID, yearMonth string) (payroll.SalaryResponse, error) {
	actor, err := user.RequireManager(ctx)
	if err != nil {
		return payroll.SalaryResponse{}, err
	}
	ym, err := parseYearMonth(yearMonth)
	if err != nil {
		return payroll.SalaryResponse{}, err
	}

	var settled payroll.SalaryBreakdown
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.SalaryRepository.GetForUpdate(ctx, employeeID, ym.String())
		if err != nil {
			return fmt.Errorf("failed to lock salary record: %w", err)
		}
		if rec.IsPaid {
			return payroll.ErrAlreadySettled
		}

		b, err := s.calculator.Calculate(ctx, employeeID, ym, true)
		if err != nil {
			return fmt.Errorf("failed to calculate salary: %w", err)
		}

		paidAt := s.clock.Now()
		if err := s.SalaryRepository.Settle(ctx, b.Figures, paidAt, actor.EmployeeID); err != nil {
			return err
		}

		paidBy := actor.EmployeeID
		settled = payroll.SalaryBreakdown{
			Status:  payroll.StatusSettled,
			Figures: b.Figures,
			PaidAt:  &paidAt,
			PaidBy:  &paidBy,
		}
		return nil
	})
	if err != nil {
		return payroll.SalaryResponse{}, err
	}

	s.notifier.Notify(ctx, notification.NotifyRequest{
		RecipientID: employeeID,
		SenderID:    &actor.EmployeeID,
		Type:        notification.TypeSalarySettled,
		Title:       "Salary settled",
		Message:     fmt.Sprintf("Your salary for %s has been settled: %s", ym, settled.Figures.TotalSalary.StringFixed(2)),
		Link:        "/salaries/me/" + ym.String(),
		Data: map[string]interface{}{
			"year_month":   ym.String(),
			"total_salary": settled.Figures.TotalSalary.String(),
		},
	})

	return payroll.ToSalaryResponse(settled), nil
}

// Resettle implements payroll.SalaryService. It clears the snapshot and
// writes a fresh live cache in the same transaction.
func (s *SalaryServiceImpl) Resettle(ctx context.Context, employeeID, yearMonth string) (payroll.SalaryResponse, error) {
	actor, err := user.RequireManager(ctx)
	if err != nil {
		return payroll.SalaryResponse{}, err
	}
	ym, err := parseYearMonth(yearMonth)
	if err != nil {
		return payroll.SalaryResponse{}, err
	}

	var live payroll.SalaryBreakdown
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.SalaryRepository.GetForUpdate(ctx, employeeID, ym.String())
		if err != nil {
			return fmt.Errorf("failed to lock salary record: %w", err)
		}
		if !rec.IsPaid {
			return payroll.ErrNotSettled
		}
		if err := s.SalaryRepository.Unsettle(ctx, employeeID, ym.String()); err != nil {
			return err
		}

		live, err = s.recomputeLive(ctx, employeeID, ym)
		return err
	})
	if err != nil {
		return payroll.SalaryResponse{}, err
	}

	s.notifier.Notify(ctx, notification.NotifyRequest{
		RecipientID: employeeID,
		SenderID:    &actor.EmployeeID,
		Type:        notification.TypeSalaryResettled,
		Title:       "Salary reopened",
		Message:     fmt.Sprintf("Your salary for %s has been reopened for correction", ym),
		Link:        "/salaries/me/" + ym.String(),
		Data:        map[string]interface{}{"year_month": ym.String()},
	})

	return payroll.ToSalaryResponse(live), nil
}

// UpdateBonus implements payroll.SalaryService.
func (s *SalaryServiceImpl) UpdateBonus(ctx context.Context, employeeID, yearMonth string, req payroll.UpdateBonusRequest) (payroll.SalaryResponse, error) {
	if _, err := user.RequireManager(ctx); err != nil {
		return payroll.SalaryResponse{}, err
	}
	ym, err := parseYearMonth(yearMonth)
	if err != nil {
		return payroll.SalaryResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.SalaryResponse{}, err
	}

	var live payroll.SalaryBreakdown
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.SalaryRepository.GetForUpdate(ctx, employeeID, ym.String())
		if err != nil {
			return fmt.Errorf("failed to lock salary record: %w", err)
		}
		if rec.IsPaid {
			return payroll.ErrSettledReadOnly
		}

		notes := rec.Notes
		if req.Notes != nil {
			notes = req.Notes
		}
		if err := s.SalaryRepository.UpdateBonus(ctx, employeeID, ym.String(), *req.Bonus, notes); err != nil {
			return err
		}

		live, err = s.recomputeLive(ctx, employeeID, ym)
		return err
	})
	if err != nil {
		return payroll.SalaryResponse{}, err
	}

	return payroll.ToSalaryResponse(live), nil
}

// recomputeLive calculates fresh figures and persists them as the live cache.
func (s *SalaryServiceImpl) recomputeLive(ctx context.Context, employeeID string, ym civil.YearMonth) (payroll.SalaryBreakdown, error) {
	b, err := s.calculator.Calculate(ctx, employeeID, ym, true)
	if err != nil {
		return payroll.SalaryBreakdown{}, fmt.Errorf("failed to calculate salary: %w", err)
	}
	if _, err := s.SalaryRepository.SaveLive(ctx, b.Figures); err != nil {
		return payroll.SalaryBreakdown{}, fmt.Errorf("failed to save salary record: %w", err)
	}
	b.Status = payroll.StatusUnsettled
	return b, nil
}
