package payroll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(database.MarkInTx(ctx))
}

type fakeEmployeeRepository struct {
	employee.EmployeeRepository
	employees map[string]employee.Employee
	getErr    map[string]error
	gets      atomic.Int32
}

func (f *fakeEmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	f.gets.Add(1)
	if err := ctx.Err(); err != nil {
		return employee.Employee{}, err
	}
	if err := f.getErr[id]; err != nil {
		return employee.Employee{}, err
	}
	e, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAttendanceRepository struct {
	attendance.AttendanceRepository
	records []attendance.Attendance
}

func (f *fakeAttendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, r := range f.records {
		if r.EmployeeID == employeeID && !r.WorkDate.Before(from) && !r.WorkDate.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeLeaveRequestRepository struct {
	leave.LeaveRequestRepository
	requests []leave.LeaveRequest
}

func (f *fakeLeaveRequestRepository) ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, r := range f.requests {
		if r.EmployeeID == employeeID && r.Status == leave.LeaveRequestStatusApproved &&
			!r.StartDate.After(to) && !r.EndDate.Before(from) {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeSalaryRepository keeps the conditional-update semantics of the
// PostgreSQL implementation.
type fakeSalaryRepository struct {
	mu      sync.Mutex
	records map[string]*payroll.SalaryRecord
	saveErr error
}

func newFakeSalaryRepository() *fakeSalaryRepository {
	return &fakeSalaryRepository{records: map[string]*payroll.SalaryRecord{}}
}

func salaryKey(employeeID, yearMonth string) string {
	return employeeID + "|" + yearMonth
}

func (f *fakeSalaryRepository) Get(ctx context.Context, employeeID, yearMonth string) (payroll.SalaryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[salaryKey(employeeID, yearMonth)]
	if !ok {
		return payroll.SalaryRecord{}, payroll.ErrSalaryRecordNotFound
	}
	return *rec, nil
}

func (f *fakeSalaryRepository) GetForUpdate(ctx context.Context, employeeID, yearMonth string) (payroll.SalaryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := salaryKey(employeeID, yearMonth)
	rec, ok := f.records[key]
	if !ok {
		rec = &payroll.SalaryRecord{
			ID:          key,
			EmployeeID:  employeeID,
			YearMonth:   yearMonth,
			State:       payroll.SalaryStateLive,
			BaseSalary:  decimal.Zero,
			Bonus:       decimal.Zero,
			TotalSalary: decimal.Zero,
		}
		f.records[key] = rec
	}
	return *rec, nil
}

func (f *fakeSalaryRepository) SaveLive(ctx context.Context, fig payroll.SalaryFigures) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return false, f.saveErr
	}
	key := salaryKey(fig.EmployeeID, fig.YearMonth)
	rec, ok := f.records[key]
	if ok && rec.IsPaid {
		return false, nil
	}
	if !ok {
		rec = &payroll.SalaryRecord{ID: key, EmployeeID: fig.EmployeeID, YearMonth: fig.YearMonth, Bonus: decimal.Zero}
		f.records[key] = rec
	}
	computedAt := fig.ComputedAt
	rec.State = payroll.SalaryStateLive
	rec.BaseSalary = fig.BaseSalary
	rec.TotalSalary = fig.BaseSalary.Add(rec.Bonus)
	rec.WorkHours = fig.WorkHours
	rec.ComputedAt = &computedAt
	return true, nil
}

func (f *fakeSalaryRepository) Settle(ctx context.Context, fig payroll.SalaryFigures, paidAt time.Time, paidBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[salaryKey(fig.EmployeeID, fig.YearMonth)]
	if !ok || rec.IsPaid {
		return payroll.ErrAlreadySettled
	}
	snapshot := fig
	rec.State = payroll.SalaryStateSettled
	rec.IsPaid = true
	rec.PaidAt = &paidAt
	rec.PaidBy = &paidBy
	rec.SettledData = &snapshot
	rec.BaseSalary = fig.BaseSalary
	rec.Bonus = fig.Bonus
	rec.TotalSalary = fig.TotalSalary
	rec.WorkHours = fig.WorkHours
	return nil
}

func (f *fakeSalaryRepository) Unsettle(ctx context.Context, employeeID, yearMonth string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[salaryKey(employeeID, yearMonth)]
	if !ok || !rec.IsPaid {
		return payroll.ErrNotSettled
	}
	rec.State = payroll.SalaryStateLive
	rec.IsPaid = false
	rec.PaidAt = nil
	rec.PaidBy = nil
	rec.SettledData = nil
	return nil
}

func (f *fakeSalaryRepository) UpdateBonus(ctx context.Context, employeeID, yearMonth string, bonus decimal.Decimal, notes *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[salaryKey(employeeID, yearMonth)]
	if !ok {
		return payroll.ErrSalaryRecordNotFound
	}
	if rec.IsPaid {
		return payroll.ErrSettledReadOnly
	}
	rec.Bonus = bonus
	rec.Notes = notes
	rec.TotalSalary = rec.BaseSalary.Add(bonus)
	return nil
}

func (f *fakeSalaryRepository) ListByMonth(ctx context.Context, yearMonth string) ([]payroll.SalaryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.SalaryRecord
	for _, rec := range f.records {
		if rec.YearMonth == yearMonth {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification.NotifyRequest
}

func (f *fakeNotifier) Notify(ctx context.Context, req notification.NotifyRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
}

var errBoom = errors.New("boom")
