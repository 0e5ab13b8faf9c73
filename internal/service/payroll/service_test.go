package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const month = "2026-02"

type fixture struct {
	employees   *fakeEmployeeRepository
	salaries    *fakeSalaryRepository
	attendances *fakeAttendanceRepository
	leaves      *fakeLeaveRequestRepository
	notifier    *fakeNotifier
	calculator  payroll.Calculator
	service     payroll.SalaryService
}

func attendanceOn(employeeID string, day int, hours, breakHours float64, status attendance.Status) attendance.Attendance {
	return attendance.Attendance{
		EmployeeID: employeeID,
		WorkDate:   civil.Date(2026, 2, day),
		WorkHours:  hours,
		BreakHours: breakHours,
		Status:     status,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		employees: &fakeEmployeeRepository{
			employees: map[string]employee.Employee{
				"emp-monthly": {
					ID:           "emp-monthly",
					FullName:     "Mei Lin",
					SalaryType:   employee.SalaryTypeMonthly,
					SalaryAmount: decimal.NewFromInt(50000),
					IsActive:     true,
				},
				"emp-hourly": {
					ID:           "emp-hourly",
					FullName:     "Chen Wei",
					SalaryType:   employee.SalaryTypeHourly,
					SalaryAmount: decimal.NewFromInt(150),
					IsActive:     true,
				},
			},
		},
		salaries: newFakeSalaryRepository(),
		attendances: &fakeAttendanceRepository{records: []attendance.Attendance{
			attendanceOn("emp-monthly", 2, 8, 1, attendance.StatusNormal),
			attendanceOn("emp-monthly", 3, 7.5, 1, attendance.StatusLate),
			attendanceOn("emp-monthly", 4, 6.25, 1, attendance.StatusLateEarlyLeave),
			attendanceOn("emp-hourly", 2, 8.5, 0.5, attendance.StatusNormal),
			attendanceOn("emp-hourly", 5, 4.25, 0, attendance.StatusEarlyLeave),
		}},
		leaves: &fakeLeaveRequestRepository{requests: []leave.LeaveRequest{
			{
				EmployeeID: "emp-monthly",
				LeaveType:  leave.LeaveTypeAnnual,
				StartDate:  civil.Date(2026, 1, 30),
				EndDate:    civil.Date(2026, 2, 2),
				Days:       4,
				Status:     leave.LeaveRequestStatusApproved,
			},
			{
				EmployeeID: "emp-monthly",
				LeaveType:  leave.LeaveTypeSick,
				StartDate:  civil.Date(2026, 2, 10),
				EndDate:    civil.Date(2026, 2, 10),
				Days:       0.5,
				Status:     leave.LeaveRequestStatusApproved,
			},
			{
				EmployeeID: "emp-monthly",
				LeaveType:  leave.LeaveTypeAnnual,
				StartDate:  civil.Date(2026, 2, 20),
				EndDate:    civil.Date(2026, 2, 20),
				Days:       1,
				Status:     leave.LeaveRequestStatusPending,
			},
		}},
		notifier: &fakeNotifier{},
	}

	clock := civil.FixedClock{At: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	f.calculator = NewCalculator(f.employees, f.salaries, f.attendances, f.leaves, clock, database.RetryPolicy{Attempts: 1})
	f.service = NewSalaryService(fakeTx{}, f.salaries, f.employees, f.calculator, f.notifier, clock)
	return f
}

func managerCtx() context.Context {
	return user.WithActor(context.Background(), user.Actor{EmployeeID: "mgr-1", Role: user.RoleManager})
}

func employeeCtx(id string) context.Context {
	return user.WithActor(context.Background(), user.Actor{EmployeeID: id, Role: user.RoleEmployee})
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCalculate_Monthly(t *testing.T) {
	f := newFixture(t)

	b, err := f.calculator.Calculate(context.Background(), "emp-monthly", civil.YearMonth{Year: 2026, Month: time.February}, false)
	require.NoError(t, err)

	assert.Equal(t, payroll.StatusUnsettled, b.Status)
	assert.Equal(t, 21.75, b.Figures.WorkHours)
	assert.Equal(t, 3.0, b.Figures.TotalBreakHours)
	assert.Equal(t, 3, b.Figures.AttendanceDays)
	assert.Equal(t, 2, b.Figures.LateCount)
	assert.Equal(t, 1, b.Figures.EarlyLeaveCount)
	assert.Equal(t, map[string]float64{"annual": 2, "sick": 0.5}, b.Figures.LeaveDays)
	assert.Equal(t, 2.5, b.Figures.TotalLeaveDays)
	assertDecimal(t, "50000", b.Figures.BaseSalary)
	assertDecimal(t, "0", b.Figures.Bonus)
	assertDecimal(t, "50000", b.Figures.TotalSalary)
}

func TestCalculate_Hourly(t *testing.T) {
	f := newFixture(t)

	b, err := f.calculator.Calculate(context.Background(), "emp-hourly", civil.YearMonth{Year: 2026, Month: time.February}, false)
	require.NoError(t, err)

	assert.Equal(t, 12.75, b.Figures.WorkHours)
	assertDecimal(t, "150", b.Figures.Rate)
	assertDecimal(t, "1912.5", b.Figures.BaseSalary)
	assertDecimal(t, "1912.5", b.Figures.TotalSalary)
}

func TestCalculate_UnknownEmployee(t *testing.T) {
	f := newFixture(t)

	_, err := f.calculator.Calculate(context.Background(), "nobody", civil.YearMonth{Year: 2026, Month: time.February}, false)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestSettle_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := managerCtx()

	first, err := f.service.Settle(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusSettled), first.Status)
	require.NotNil(t, first.PaidBy)
	assert.Equal(t, "mgr-1", *first.PaidBy)

	before, err := f.salaries.Get(ctx, "emp-monthly", month)
	require.NoError(t, err)
	snapshot := *before.SettledData

	// New attendance after settlement must not leak into the frozen month.
	f.attendances.records = append(f.attendances.records, attendanceOn("emp-monthly", 9, 8, 1, attendance.StatusNormal))

	_, err = f.service.Settle(ctx, "emp-monthly", month)
	assert.ErrorIs(t, err, payroll.ErrAlreadySettled)

	after, err := f.salaries.Get(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assert.Equal(t, snapshot, *after.SettledData)

	view, err := f.service.GetSalary(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusSettled), view.Status)
	assert.Equal(t, 3, view.AttendanceDays)
}

func TestSettleResettle_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := managerCtx()

	bonus := decimal.NewFromInt(1000)
	notes := "Q1 incentive"
	_, err := f.service.UpdateBonus(ctx, "emp-hourly", month, payroll.UpdateBonusRequest{Bonus: &bonus, Notes: &notes})
	require.NoError(t, err)

	live, err := f.service.GetSalary(ctx, "emp-hourly", month)
	require.NoError(t, err)
	assertDecimal(t, "2912.5", live.TotalSalary)

	settled, err := f.service.Settle(ctx, "emp-hourly", month)
	require.NoError(t, err)
	assertDecimal(t, "2912.5", settled.TotalSalary)

	reopened, err := f.service.Resettle(ctx, "emp-hourly", month)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusUnsettled), reopened.Status)
	assertDecimal(t, live.BaseSalary.String(), reopened.BaseSalary)
	assertDecimal(t, "1000", reopened.Bonus)
	assertDecimal(t, live.TotalSalary.String(), reopened.TotalSalary)
	assert.Equal(t, live.WorkHours, reopened.WorkHours)
	assert.Equal(t, live.TotalBreakHours, reopened.TotalBreakHours)
	assert.Equal(t, live.LeaveDays, reopened.LeaveDays)
	require.NotNil(t, reopened.Notes)
	assert.Equal(t, notes, *reopened.Notes)
	assert.Nil(t, reopened.PaidAt)

	rec, err := f.salaries.Get(ctx, "emp-hourly", month)
	require.NoError(t, err)
	assert.False(t, rec.IsPaid)
	assert.Nil(t, rec.SettledData)
	assert.Equal(t, payroll.SalaryStateLive, rec.State)
	assertDecimal(t, "2912.5", rec.TotalSalary)
}

func TestResettle_NotSettled(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Resettle(managerCtx(), "emp-monthly", month)
	assert.ErrorIs(t, err, payroll.ErrNotSettled)
}

func TestUpdateBonus_SettledIsReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := managerCtx()

	_, err := f.service.Settle(ctx, "emp-monthly", month)
	require.NoError(t, err)

	bonus := decimal.NewFromInt(500)
	_, err = f.service.UpdateBonus(ctx, "emp-monthly", month, payroll.UpdateBonusRequest{Bonus: &bonus})
	assert.ErrorIs(t, err, payroll.ErrSettledReadOnly)

	rec, err := f.salaries.Get(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assertDecimal(t, "0", rec.Bonus)
}

func TestUpdateBonus_Negative(t *testing.T) {
	f := newFixture(t)

	bonus := decimal.NewFromInt(-1)
	_, err := f.service.UpdateBonus(managerCtx(), "emp-monthly", month, payroll.UpdateBonusRequest{Bonus: &bonus})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bonus")
}

func TestSaveLive(t *testing.T) {
	f := newFixture(t)
	ctx := managerCtx()

	saved, err := f.service.SaveLive(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assert.True(t, saved)

	_, err = f.service.Settle(ctx, "emp-monthly", month)
	require.NoError(t, err)
	f.attendances.records = append(f.attendances.records, attendanceOn("emp-monthly", 9, 8, 1, attendance.StatusNormal))

	saved, err = f.service.SaveLive(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assert.False(t, saved)

	rec, err := f.salaries.Get(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assert.True(t, rec.IsPaid)
	assert.Equal(t, 21.75, rec.WorkHours)
}

func TestSettlement_RequiresManager(t *testing.T) {
	f := newFixture(t)
	ctx := employeeCtx("emp-monthly")

	_, err := f.service.Settle(ctx, "emp-monthly", month)
	assert.ErrorIs(t, err, user.ErrManagerAccessRequired)

	_, err = f.service.Resettle(ctx, "emp-monthly", month)
	assert.ErrorIs(t, err, user.ErrManagerAccessRequired)

	_, err = f.service.Settle(context.Background(), "emp-monthly", month)
	assert.ErrorIs(t, err, user.ErrUnauthenticated)
}

func TestGetSalary_Access(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetSalary(employeeCtx("emp-hourly"), "emp-monthly", month)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	mine, err := f.service.GetMySalary(employeeCtx("emp-hourly"), month)
	require.NoError(t, err)
	assert.Equal(t, "emp-hourly", mine.EmployeeID)

	_, err = f.service.GetSalary(managerCtx(), "emp-monthly", "2026/02")
	assert.ErrorIs(t, err, payroll.ErrInvalidYearMonth)
}

func TestSettle_NotifiesEmployee(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Settle(managerCtx(), "emp-monthly", month)
	require.NoError(t, err)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "emp-monthly", f.notifier.sent[0].RecipientID)
	assert.Equal(t, notification.TypeSalarySettled, f.notifier.sent[0].Type)
}

func TestListSalaries(t *testing.T) {
	f := newFixture(t)
	f.employees.employees["emp-broken"] = employee.Employee{ID: "emp-broken", IsActive: true}
	f.employees.getErr = map[string]error{"emp-broken": errBoom}
	ctx := managerCtx()

	_, err := f.service.Settle(ctx, "emp-monthly", month)
	require.NoError(t, err)

	overview, err := f.service.ListSalaries(ctx, month)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.EmployeeCount)
	assert.Equal(t, 1, overview.SettledCount)
	assertDecimal(t, "51912.5", overview.TotalPayroll)
	assert.Equal(t, []string{"emp-broken"}, overview.FailedEmployees)

	_, err = f.service.ListSalaries(employeeCtx("emp-monthly"), month)
	assert.ErrorIs(t, err, user.ErrManagerAccessRequired)
}

func TestGetSalary_RefreshesLiveCache(t *testing.T) {
	f := newFixture(t)
	ctx := managerCtx()

	_, err := f.salaries.Get(ctx, "emp-monthly", month)
	require.ErrorIs(t, err, payroll.ErrSalaryRecordNotFound)

	resp, err := f.service.GetSalary(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusUnsettled), resp.Status)

	rec, err := f.salaries.Get(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assert.False(t, rec.IsPaid)
	assert.Equal(t, 21.75, rec.WorkHours)
	assertDecimal(t, "50000", rec.BaseSalary)

	// settled rows are left alone
	_, err = f.service.Settle(ctx, "emp-monthly", month)
	require.NoError(t, err)
	f.attendances.records = append(f.attendances.records, attendanceOn("emp-monthly", 9, 8, 1, attendance.StatusNormal))

	resp, err = f.service.GetSalary(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusSettled), resp.Status)
	rec, err = f.salaries.Get(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assert.Equal(t, 21.75, rec.WorkHours)
}

func TestGetSalary_CacheWriteFailureStillReturnsFigures(t *testing.T) {
	f := newFixture(t)
	f.salaries.saveErr = errBoom

	resp, err := f.service.GetMySalary(employeeCtx("emp-hourly"), month)
	require.NoError(t, err)
	assertDecimal(t, "1912.5", resp.TotalSalary)
}

func TestGetSalary_CallerCancellationDoesNotAbortSharedWork(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(managerCtx())
	cancel()

	resp, err := f.service.GetSalary(ctx, "emp-monthly", month)
	require.NoError(t, err)
	assertDecimal(t, "50000", resp.TotalSalary)
}

func TestCalculate_NoRetryInsideTransaction(t *testing.T) {
	f := newFixture(t)
	clock := civil.FixedClock{At: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	f.calculator = NewCalculator(f.employees, f.salaries, f.attendances, f.leaves, clock, database.RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond})
	f.service = NewSalaryService(fakeTx{}, f.salaries, f.employees, f.calculator, f.notifier, clock)
	f.employees.getErr = map[string]error{"emp-monthly": context.DeadlineExceeded}

	_, err := f.service.Settle(managerCtx(), "emp-monthly", month)
	assert.ErrorIs(t, err, database.ErrTransient)
	assert.EqualValues(t, 1, f.employees.gets.Load())

	f.employees.gets.Store(0)
	_, err = f.service.GetSalary(managerCtx(), "emp-monthly", month)
	assert.ErrorIs(t, err, database.ErrTransient)
	assert.EqualValues(t, 3, f.employees.gets.Load())
}

func TestListSalaries_UsesSettledSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := managerCtx()

	_, err := f.service.Settle(ctx, "emp-hourly", month)
	require.NoError(t, err)

	// deactivated after settlement, and later attendance must not leak in
	hourly := f.employees.employees["emp-hourly"]
	hourly.IsActive = false
	f.employees.employees["emp-hourly"] = hourly
	f.attendances.records = append(f.attendances.records, attendanceOn("emp-hourly", 9, 8, 0, attendance.StatusNormal))

	f.employees.gets.Store(0)
	overview, err := f.service.ListSalaries(ctx, month)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.EmployeeCount)
	assert.Equal(t, 1, overview.SettledCount)
	assertDecimal(t, "51912.5", overview.TotalPayroll)
	assert.EqualValues(t, 1, f.employees.gets.Load())
}

func TestLeaveDaysInMonth(t *testing.T) {
	feb := civil.YearMonth{Year: 2026, Month: time.February}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		days  float64
		want  float64
	}{
		{"inside month", civil.Date(2026, 2, 3), civil.Date(2026, 2, 4), 2, 2},
		{"half day", civil.Date(2026, 2, 3), civil.Date(2026, 2, 3), 0.5, 0.5},
		{"spans into month", civil.Date(2026, 1, 30), civil.Date(2026, 2, 2), 4, 2},
		{"spans out of month", civil.Date(2026, 2, 27), civil.Date(2026, 3, 2), 4, 2},
		{"fewer days than span", civil.Date(2026, 1, 31), civil.Date(2026, 2, 3), 2, 1.5},
		{"outside month", civil.Date(2026, 3, 2), civil.Date(2026, 3, 3), 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := leave.LeaveRequest{StartDate: tt.start, EndDate: tt.end, Days: tt.days}
			assert.Equal(t, tt.want, leaveDaysInMonth(lr, feb))
		})
	}
}
