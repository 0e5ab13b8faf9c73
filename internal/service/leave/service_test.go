package leave

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc       leave.LeaveService
	employees *fakeEmployeeRepository
	requests  *fakeLeaveRequestRepository
	cancels   *fakeCancellationRepository
	balances  *fakeBalanceRepository
	notifier  *fakeNotifier
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := civil.Date(y, m, d)
	return &t
}

func newFixture() *fixture {
	employees := &fakeEmployeeRepository{employees: map[string]*employee.Employee{
		// Two full years of service on 2026-03-01: 10 days.
		"emp-1":    {ID: "emp-1", FullName: "Ayu Lestari", Role: user.RoleEmployee, IsActive: true, OnboardDate: datePtr(2024, 1, 10)},
		"emp-2":    {ID: "emp-2", FullName: "Budi Santoso", Role: user.RoleEmployee, IsActive: true, OnboardDate: datePtr(2025, 1, 10)},
		"emp-new":  {ID: "emp-new", FullName: "Citra Dewi", Role: user.RoleEmployee, IsActive: true},
		"emp-gone": {ID: "emp-gone", FullName: "Dimas Pratama", Role: user.RoleEmployee, IsActive: false, OnboardDate: datePtr(2020, 1, 1)},
		"mgr-1":    {ID: "mgr-1", FullName: "Eka Putri", Role: user.RoleManager, IsActive: true, OnboardDate: datePtr(2020, 1, 1)},
		"mgr-2":    {ID: "mgr-2", FullName: "Fajar Nugroho", Role: user.RoleSuperAdmin, IsActive: true, OnboardDate: datePtr(2019, 6, 1)},
	}}

	f := &fixture{
		employees: employees,
		requests:  newFakeLeaveRequestRepository(),
		cancels:   newFakeCancellationRepository(),
		balances:  newFakeBalanceRepository(),
		notifier:  &fakeNotifier{},
	}
	clock := civil.FixedClock{At: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.svc = NewLeaveService(fakeTx{}, f.requests, f.cancels, f.balances, employees, f.notifier, clock)
	return f
}

func as(id string, role user.Role) context.Context {
	return user.WithActor(context.Background(), user.Actor{EmployeeID: id, Role: role})
}

func annual(start, end string, days float64) leave.ApplyLeaveRequest {
	return leave.ApplyLeaveRequest{LeaveType: "annual", StartDate: start, EndDate: end, Days: days, Reason: "family trip"}
}

func TestApplyLeave_PendingRequestsReserveBalance(t *testing.T) {
	f := newFixture()
	ctx := as("emp-1", user.RoleEmployee)

	first, err := f.svc.ApplyLeave(ctx, annual("2026-04-01", "2026-04-06", 6))
	require.NoError(t, err)
	assert.Equal(t, "pending", first.Status)

	_, err = f.svc.ApplyLeave(ctx, annual("2026-05-04", "2026-05-08", 5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, leave.ErrInsufficientBalance))

	var balErr *leave.InsufficientBalanceError
	require.True(t, errors.As(err, &balErr))
	assert.Equal(t, 2026, balErr.Year)
	assert.Equal(t, 10.0, balErr.Total)
	assert.Equal(t, 6.0, balErr.Reserved)
	assert.Equal(t, 5.0, balErr.Requested)
	assert.Equal(t, 4.0, balErr.Remaining())
	assert.Equal(t, 4.0, balErr.Details()["remaining"])

	list, err := f.svc.GetMyLeaveRequests(ctx, leave.LeaveRequestFilter{})
	require.NoError(t, err)
	assert.Len(t, list.Requests, 1)

	bal, err := f.svc.GetMyBalance(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 10.0, bal.TotalDays)
	assert.Equal(t, 6.0, bal.Reserved)
	assert.Equal(t, 4.0, bal.Remaining)

	// The remaining four days still fit.
	_, err = f.svc.ApplyLeave(ctx, annual("2026-05-04", "2026-05-07", 4))
	require.NoError(t, err)
}

func TestApplyLeave_NonAnnualSkipsBalance(t *testing.T) {
	f := newFixture()
	ctx := as("emp-new", user.RoleEmployee)

	_, err := f.svc.ApplyLeave(ctx, annual("2026-04-01", "2026-04-01", 1))
	assert.ErrorIs(t, err, leave.ErrBalanceUnavailable)

	sick := leave.ApplyLeaveRequest{LeaveType: "sick", StartDate: "2026-04-01", EndDate: "2026-04-01", Days: 0.5}
	resp, err := f.svc.ApplyLeave(ctx, sick)
	require.NoError(t, err)
	assert.Equal(t, "sick", resp.LeaveType)
	assert.Empty(t, f.balances.balances)
}

func TestApplyLeave_Rejections(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ApplyLeave(context.Background(), annual("2026-04-01", "2026-04-01", 1))
	assert.ErrorIs(t, err, user.ErrUnauthenticated)

	_, err = f.svc.ApplyLeave(as("emp-gone", user.RoleEmployee), annual("2026-04-01", "2026-04-01", 1))
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)

	_, err = f.svc.ApplyLeave(as("emp-1", user.RoleEmployee), annual("2026-04-01", "2026-04-02", 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "days")
	assert.Empty(t, f.requests.requests)
}

func TestApplyLeave_ChargedToStartYear(t *testing.T) {
	f := newFixture()
	ctx := as("emp-1", user.RoleEmployee)

	_, err := f.svc.ApplyLeave(ctx, annual("2026-12-30", "2027-01-02", 4))
	require.NoError(t, err)

	b2026, err := f.svc.GetMyBalance(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 4.0, b2026.Reserved)

	b2027, err := f.svc.GetMyBalance(ctx, 2027)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b2027.Reserved)
}

func TestApplyLeave_NotifiesManagers(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ApplyLeave(as("emp-1", user.RoleEmployee), annual("2026-04-01", "2026-04-02", 2))
	require.NoError(t, err)

	sent := f.notifier.ofType(notification.TypeLeaveRequest)
	require.Len(t, sent, 2)
	assert.Equal(t, "mgr-1", sent[0].RecipientID)
	assert.Equal(t, "mgr-2", sent[1].RecipientID)
	assert.Equal(t, "emp-1", *sent[0].SenderID)

	f.notifier.sent = nil
	_, err = f.svc.ApplyLeave(as("mgr-1", user.RoleManager), annual("2026-04-01", "2026-04-02", 2))
	require.NoError(t, err)
	sent = f.notifier.ofType(notification.TypeLeaveRequest)
	require.Len(t, sent, 1)
	assert.Equal(t, "mgr-2", sent[0].RecipientID)
}

func TestApproveLeave_KeepsTotalAndReservation(t *testing.T) {
	f := newFixture()
	emp := as("emp-1", user.RoleEmployee)

	lr, err := f.svc.ApplyLeave(emp, annual("2026-04-01", "2026-04-06", 6))
	require.NoError(t, err)

	approved, err := f.svc.ApproveLeaveRequest(as("mgr-1", user.RoleManager), lr.ID, leave.ReviewRequest{})
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)

	bal, err := f.svc.GetMyBalance(emp, 2026)
	require.NoError(t, err)
	assert.Equal(t, 10.0, bal.TotalDays)
	assert.Equal(t, 6.0, bal.Reserved)
	assert.Equal(t, 6.0, f.employees.employees["emp-1"].AnnualLeaveUsed)

	sent := f.notifier.ofType(notification.TypeLeaveApproved)
	require.Len(t, sent, 1)
	assert.Equal(t, "emp-1", sent[0].RecipientID)

	_, err = f.svc.RejectLeaveRequest(as("mgr-2", user.RoleSuperAdmin), lr.ID, leave.ReviewRequest{})
	assert.ErrorIs(t, err, leave.ErrLeaveRequestAlreadyProcessed)
}

func TestRejectLeave_ReleasesReservation(t *testing.T) {
	f := newFixture()
	emp := as("emp-1", user.RoleEmployee)

	lr, err := f.svc.ApplyLeave(emp, annual("2026-04-01", "2026-04-06", 6))
	require.NoError(t, err)

	note := "team offsite that week"
	rejected, err := f.svc.RejectLeaveRequest(as("mgr-1", user.RoleManager), lr.ID, leave.ReviewRequest{Note: &note})
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)

	bal, err := f.svc.GetMyBalance(emp, 2026)
	require.NoError(t, err)
	assert.Equal(t, 0.0, bal.Reserved)
	assert.Equal(t, 10.0, bal.Remaining)
	assert.Equal(t, 0.0, f.balances.balances[balanceKey("emp-1", 2026)].UsedDays)

	_, err = f.svc.ApplyLeave(emp, annual("2026-06-01", "2026-06-10", 10))
	require.NoError(t, err)
}

func TestReview_Permissions(t *testing.T) {
	f := newFixture()

	own, err := f.svc.ApplyLeave(as("mgr-1", user.RoleManager), annual("2026-04-01", "2026-04-01", 1))
	require.NoError(t, err)
	_, err = f.svc.ApproveLeaveRequest(as("mgr-1", user.RoleManager), own.ID, leave.ReviewRequest{})
	assert.ErrorIs(t, err, leave.ErrCannotReviewOwnRequest)

	other, err := f.svc.ApplyLeave(as("emp-1", user.RoleEmployee), annual("2026-04-01", "2026-04-01", 1))
	require.NoError(t, err)
	_, err = f.svc.ApproveLeaveRequest(as("emp-2", user.RoleEmployee), other.ID, leave.ReviewRequest{})
	assert.ErrorIs(t, err, user.ErrManagerAccessRequired)

	_, err = f.svc.ListLeaveRequests(as("emp-2", user.RoleEmployee), leave.LeaveRequestFilter{})
	assert.ErrorIs(t, err, user.ErrManagerAccessRequired)

	all, err := f.svc.ListLeaveRequests(as("mgr-2", user.RoleSuperAdmin), leave.LeaveRequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalCount)
	assert.Equal(t, int64(1), all.TotalPages)
}

func TestCancelLeaveRequest(t *testing.T) {
	f := newFixture()
	emp := as("emp-1", user.RoleEmployee)

	lr, err := f.svc.ApplyLeave(emp, annual("2026-04-01", "2026-04-03", 3))
	require.NoError(t, err)

	_, err = f.svc.CancelLeaveRequest(as("emp-2", user.RoleEmployee), lr.ID)
	assert.ErrorIs(t, err, leave.ErrNotLeaveOwner)

	cancelled, err := f.svc.CancelLeaveRequest(emp, lr.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)

	bal, err := f.svc.GetMyBalance(emp, 2026)
	require.NoError(t, err)
	assert.Equal(t, 0.0, bal.Reserved)

	_, err = f.svc.CancelLeaveRequest(emp, lr.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotPending)
}

func TestCancellationWorkflow(t *testing.T) {
	f := newFixture()
	emp := as("emp-1", user.RoleEmployee)
	mgr := as("mgr-1", user.RoleManager)

	lr, err := f.svc.ApplyLeave(emp, annual("2026-04-01", "2026-04-06", 6))
	require.NoError(t, err)

	_, err = f.svc.RequestCancellation(emp, lr.ID, leave.CreateCancellationRequest{Reason: "plans changed"})
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotApproved)

	_, err = f.svc.ApproveLeaveRequest(mgr, lr.ID, leave.ReviewRequest{})
	require.NoError(t, err)

	c, err := f.svc.RequestCancellation(emp, lr.ID, leave.CreateCancellationRequest{Reason: "plans changed"})
	require.NoError(t, err)
	assert.Equal(t, "pending", c.Status)
	require.NotNil(t, c.Leave)
	assert.Len(t, f.notifier.ofType(notification.TypeLeaveCancellationRequested), 2)

	_, err = f.svc.RequestCancellation(emp, lr.ID, leave.CreateCancellationRequest{Reason: "again"})
	assert.ErrorIs(t, err, leave.ErrCancellationAlreadyPending)

	_, err = f.svc.RequestCancellation(as("emp-2", user.RoleEmployee), lr.ID, leave.CreateCancellationRequest{Reason: "not mine"})
	assert.ErrorIs(t, err, leave.ErrNotLeaveOwner)

	pending := "pending"
	list, err := f.svc.ListCancellationRequests(mgr, &pending)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	bogus := "done"
	_, err = f.svc.ListCancellationRequests(mgr, &bogus)
	assert.Error(t, err)

	approved, err := f.svc.ApproveCancellation(mgr, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.Leave)
	assert.Equal(t, "cancelled", approved.Leave.Status)

	bal, err := f.svc.GetMyBalance(emp, 2026)
	require.NoError(t, err)
	assert.Equal(t, 0.0, bal.Reserved)
	assert.Equal(t, 0.0, f.employees.employees["emp-1"].AnnualLeaveUsed)
	assert.Len(t, f.notifier.ofType(notification.TypeLeaveCancellationApproved), 1)

	_, err = f.svc.RejectCancellation(mgr, c.ID)
	assert.ErrorIs(t, err, leave.ErrCancellationAlreadyProcessed)
}

func TestRejectCancellation_KeepsLeaveApproved(t *testing.T) {
	f := newFixture()
	emp := as("emp-1", user.RoleEmployee)
	mgr := as("mgr-1", user.RoleManager)

	lr, err := f.svc.ApplyLeave(emp, annual("2026-04-01", "2026-04-02", 2))
	require.NoError(t, err)
	_, err = f.svc.ApproveLeaveRequest(mgr, lr.ID, leave.ReviewRequest{})
	require.NoError(t, err)
	c, err := f.svc.RequestCancellation(emp, lr.ID, leave.CreateCancellationRequest{Reason: "plans changed"})
	require.NoError(t, err)

	rejected, err := f.svc.RejectCancellation(mgr, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)
	assert.Equal(t, "approved", rejected.Leave.Status)

	bal, err := f.svc.GetMyBalance(emp, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2.0, bal.Reserved)
}

func TestGetBalance(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetBalance(as("emp-2", user.RoleEmployee), "emp-1", 2026)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	bal, err := f.svc.GetBalance(as("mgr-1", user.RoleManager), "emp-2", 0)
	require.NoError(t, err)
	assert.Equal(t, 2026, bal.Year)
	assert.Equal(t, 7.0, bal.TotalDays)
	assert.Equal(t, 7.0, bal.Remaining)

	_, err = f.svc.GetBalance(as("mgr-1", user.RoleManager), "emp-new", 2026)
	assert.ErrorIs(t, err, leave.ErrBalanceUnavailable)

	_, err = f.svc.GetBalance(as("mgr-1", user.RoleManager), "emp-2", 12026)
	assert.Error(t, err)
}
