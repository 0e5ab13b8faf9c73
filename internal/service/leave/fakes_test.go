package leave

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
)

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeEmployeeRepository struct {
	employee.EmployeeRepository
	employees map[string]*employee.Employee
}

func (f *fakeEmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return *e, nil
}

func (f *fakeEmployeeRepository) GetByIDForUpdate(ctx context.Context, id string) (employee.Employee, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeEmployeeRepository) ListActiveManagers(ctx context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.IsActive && e.Role.IsManager() {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEmployeeRepository) SetAnnualLeaveUsed(ctx context.Context, id string, used float64) error {
	e, ok := f.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.AnnualLeaveUsed = used
	return nil
}

type fakeLeaveRequestRepository struct {
	leave.LeaveRequestRepository
	mu       sync.Mutex
	seq      int
	requests map[string]*leave.LeaveRequest
}

func newFakeLeaveRequestRepository() *fakeLeaveRequestRepository {
	return &fakeLeaveRequestRepository{requests: map[string]*leave.LeaveRequest{}}
}

func (f *fakeLeaveRequestRepository) Create(ctx context.Context, r leave.LeaveRequest) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	r.ID = fmt.Sprintf("lr-%d", f.seq)
	f.requests[r.ID] = &r
	return r, nil
}

func (f *fakeLeaveRequestRepository) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return *r, nil
}

func (f *fakeLeaveRequestRepository) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRequest
	for _, r := range f.requests {
		if filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(r.Status) != *filter.Status {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeLeaveRequestRepository) UpdateStatus(ctx context.Context, id string, from, to leave.LeaveRequestStatus, reviewedBy *string, note *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}
	if r.Status != from {
		return leave.ErrLeaveRequestAlreadyProcessed
	}
	now := time.Now()
	r.Status = to
	r.ReviewedBy = reviewedBy
	r.ReviewNote = note
	r.ReviewedAt = &now
	return nil
}

func (f *fakeLeaveRequestRepository) SumReservedDays(ctx context.Context, employeeID string, leaveType leave.LeaveType, year int) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum float64
	for _, r := range f.requests {
		if r.EmployeeID != employeeID || r.LeaveType != leaveType || r.BalanceYear() != year {
			continue
		}
		if r.Status == leave.LeaveRequestStatusPending || r.Status == leave.LeaveRequestStatusApproved {
			sum += r.Days
		}
	}
	return sum, nil
}

func (f *fakeLeaveRequestRepository) SumApprovedDaysSince(ctx context.Context, employeeID string, leaveType leave.LeaveType, since time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum float64
	for _, r := range f.requests {
		if r.EmployeeID == employeeID && r.LeaveType == leaveType &&
			r.Status == leave.LeaveRequestStatusApproved && !r.StartDate.Before(since) {
			sum += r.Days
		}
	}
	return sum, nil
}

type fakeCancellationRepository struct {
	leave.CancellationRepository
	seq   int
	items map[string]*leave.CancellationRequest
}

func newFakeCancellationRepository() *fakeCancellationRepository {
	return &fakeCancellationRepository{items: map[string]*leave.CancellationRequest{}}
}

func (f *fakeCancellationRepository) Create(ctx context.Context, c leave.CancellationRequest) (leave.CancellationRequest, error) {
	f.seq++
	c.ID = fmt.Sprintf("lc-%d", f.seq)
	f.items[c.ID] = &c
	return c, nil
}

func (f *fakeCancellationRepository) GetByID(ctx context.Context, id string) (leave.CancellationRequest, error) {
	c, ok := f.items[id]
	if !ok {
		return leave.CancellationRequest{}, leave.ErrCancellationNotFound
	}
	return *c, nil
}

func (f *fakeCancellationRepository) HasPending(ctx context.Context, leaveRequestID string) (bool, error) {
	for _, c := range f.items {
		if c.LeaveRequestID == leaveRequestID && c.Status == leave.CancellationStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCancellationRepository) List(ctx context.Context, status *leave.CancellationStatus) ([]leave.CancellationRequest, error) {
	var out []leave.CancellationRequest
	for _, c := range f.items {
		if status == nil || c.Status == *status {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCancellationRepository) UpdateStatus(ctx context.Context, id string, from, to leave.CancellationStatus, reviewedBy string) error {
	c, ok := f.items[id]
	if !ok {
		return leave.ErrCancellationNotFound
	}
	if c.Status != from {
		return leave.ErrCancellationAlreadyProcessed
	}
	now := time.Now()
	c.Status = to
	c.ReviewedBy = &reviewedBy
	c.ReviewedAt = &now
	return nil
}

type fakeBalanceRepository struct {
	leave.BalanceRepository
	balances map[string]*leave.Balance
}

func newFakeBalanceRepository() *fakeBalanceRepository {
	return &fakeBalanceRepository{balances: map[string]*leave.Balance{}}
}

func balanceKey(employeeID string, year int) string {
	return fmt.Sprintf("%s|%d", employeeID, year)
}

func (f *fakeBalanceRepository) Get(ctx context.Context, employeeID string, year int) (leave.Balance, error) {
	b, ok := f.balances[balanceKey(employeeID, year)]
	if !ok {
		return leave.Balance{}, leave.ErrBalanceNotFound
	}
	return *b, nil
}

func (f *fakeBalanceRepository) GetForUpdate(ctx context.Context, employeeID string, year int) (leave.Balance, error) {
	return f.Get(ctx, employeeID, year)
}

func (f *fakeBalanceRepository) CreateIfAbsent(ctx context.Context, b leave.Balance) error {
	key := balanceKey(b.EmployeeID, b.Year)
	if _, ok := f.balances[key]; !ok {
		f.balances[key] = &b
	}
	return nil
}

func (f *fakeBalanceRepository) UpdateUsedDays(ctx context.Context, employeeID string, year int, used float64) error {
	b, ok := f.balances[balanceKey(employeeID, year)]
	if !ok {
		return leave.ErrBalanceNotFound
	}
	b.UsedDays = used
	return nil
}

type fakeNotifier struct {
	sent []notification.NotifyRequest
}

func (f *fakeNotifier) Notify(ctx context.Context, req notification.NotifyRequest) {
	f.sent = append(f.sent, req)
}

func (f *fakeNotifier) ofType(typ notification.NotificationType) []notification.NotifyRequest {
	var out []notification.NotifyRequest
	for _, n := range f.sent {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}
