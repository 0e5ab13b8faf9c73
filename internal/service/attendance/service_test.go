package attendance

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeEmployeeRepository struct {
	employee.EmployeeRepository
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

type fakeAttendanceRepository struct {
	attendance.AttendanceRepository
	seq     int
	records map[string]attendance.Attendance
	logs    []attendance.EditLog
}

func (f *fakeAttendanceRepository) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	for _, r := range f.records {
		if r.EmployeeID == a.EmployeeID && r.WorkDate.Equal(a.WorkDate) {
			return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
		}
	}
	f.seq++
	a.ID = fmt.Sprintf("att-%d", f.seq)
	f.records[a.ID] = a
	return a, nil
}

func (f *fakeAttendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	r, ok := f.records[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return r, nil
}

func (f *fakeAttendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) (attendance.Attendance, error) {
	for _, r := range f.records {
		if r.EmployeeID == employeeID && r.WorkDate.Equal(workDate) {
			return r, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepository) Update(ctx context.Context, a attendance.Attendance) error {
	if _, ok := f.records[a.ID]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	f.records[a.ID] = a
	return nil
}

func (f *fakeAttendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, r := range f.records {
		if r.EmployeeID == employeeID && !r.WorkDate.Before(from) && !r.WorkDate.After(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkDate.Before(out[j].WorkDate) })
	return out, nil
}

func (f *fakeAttendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	var out []attendance.Attendance
	for _, r := range f.records {
		if filter.EmployeeID == nil || r.EmployeeID == *filter.EmployeeID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeAttendanceRepository) CreateEditLog(ctx context.Context, l attendance.EditLog) error {
	l.ID = fmt.Sprintf("log-%d", len(f.logs)+1)
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeAttendanceRepository) ListEditLogs(ctx context.Context, attendanceID string) ([]attendance.EditLog, error) {
	var out []attendance.EditLog
	for _, l := range f.logs {
		if l.AttendanceID == attendanceID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	sent []notification.NotifyRequest
}

func (f *fakeNotifier) Notify(ctx context.Context, req notification.NotifyRequest) {
	f.sent = append(f.sent, req)
}

var jakarta = time.FixedZone("WIB", 7*3600)

type fixture struct {
	employees *fakeEmployeeRepository
	records   *fakeAttendanceRepository
	notifier  *fakeNotifier
}

func newFixture() *fixture {
	nineToSix := func(e employee.Employee) employee.Employee {
		e.WorkStartTime = civil.NewTimeOfDay(9, 0, 0)
		e.WorkEndTime = civil.NewTimeOfDay(18, 0, 0)
		e.IsActive = true
		return e
	}
	return &fixture{
		employees: &fakeEmployeeRepository{employees: map[string]employee.Employee{
			"emp-monthly": nineToSix(employee.Employee{ID: "emp-monthly", Role: user.RoleEmployee, SalaryType: employee.SalaryTypeMonthly, SalaryAmount: decimal.NewFromInt(50000), BreakHours: 1}),
			"emp-hourly":  nineToSix(employee.Employee{ID: "emp-hourly", Role: user.RoleEmployee, SalaryType: employee.SalaryTypeHourly, SalaryAmount: decimal.NewFromInt(150)}),
			"mgr-1":       nineToSix(employee.Employee{ID: "mgr-1", Role: user.RoleManager, SalaryType: employee.SalaryTypeMonthly}),
		}},
		records:  &fakeAttendanceRepository{records: map[string]attendance.Attendance{}},
		notifier: &fakeNotifier{},
	}
}

// at returns a service whose clock reads the given wall time in Jakarta.
func (f *fixture) at(day, hour, minute int) attendance.AttendanceService {
	clock := civil.FixedClock{At: time.Date(2026, 2, day, hour, minute, 0, 0, jakarta)}
	return NewAttendanceService(fakeTx{}, f.records, f.employees, f.notifier, clock)
}

func as(id string, role user.Role) context.Context {
	return user.WithActor(context.Background(), user.Actor{EmployeeID: id, Role: role})
}

func float(v float64) *float64 { return &v }
func str(s string) *string      { return &s }

func TestClockInAndOut_Monthly(t *testing.T) {
	f := newFixture()
	ctx := as("emp-monthly", user.RoleEmployee)

	in, err := f.at(13, 9, 5).ClockIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-13", in.WorkDate)
	assert.Equal(t, "late", in.Status)
	assert.True(t, in.IsLate)
	assert.Nil(t, in.ClockOut)

	_, err = f.at(13, 10, 0).ClockIn(ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)

	// Monthly employees always use the profile break.
	out, err := f.at(13, 18, 0).ClockOut(ctx, attendance.ClockOutRequest{BreakHours: float(3)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.BreakHours)
	assert.InDelta(t, 7.92, out.WorkHours, 1e-9)
	assert.Equal(t, "late", out.Status)
	require.NotNil(t, out.ClockOut)
	assert.Equal(t, "2026-02-13T18:00:00+07:00", *out.ClockOut)

	_, err = f.at(13, 18, 30).ClockOut(ctx, attendance.ClockOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedOut)
}

func TestClockOut_Hourly(t *testing.T) {
	f := newFixture()
	ctx := as("emp-hourly", user.RoleEmployee)

	_, err := f.at(13, 17, 0).ClockOut(ctx, attendance.ClockOutRequest{BreakHours: float(0.5)})
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)

	_, err = f.at(13, 8, 50).ClockIn(ctx)
	require.NoError(t, err)

	_, err = f.at(13, 17, 0).ClockOut(ctx, attendance.ClockOutRequest{BreakHours: float(0.75)})
	assert.ErrorIs(t, err, attendance.ErrInvalidBreakHours)

	out, err := f.at(13, 17, 0).ClockOut(ctx, attendance.ClockOutRequest{BreakHours: float(0.5)})
	require.NoError(t, err)
	assert.Equal(t, 0.5, out.BreakHours)
	assert.InDelta(t, 7.67, out.WorkHours, 1e-9)
	assert.Equal(t, "early_leave", out.Status)
	assert.False(t, out.IsLate)
	assert.True(t, out.IsEarlyLeave)
}

func TestClockOut_AfterMidnight(t *testing.T) {
	f := newFixture()
	ctx := as("emp-monthly", user.RoleEmployee)

	_, err := f.at(13, 20, 0).ClockIn(ctx)
	require.NoError(t, err)

	out, err := f.at(14, 2, 0).ClockOut(ctx, attendance.ClockOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-13", out.WorkDate)
	assert.InDelta(t, 5.0, out.WorkHours, 1e-9)
	assert.Equal(t, "late", out.Status)
	assert.False(t, out.IsEarlyLeave)

	// yesterday's record is closed now
	_, err = f.at(14, 3, 0).ClockOut(ctx, attendance.ClockOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)

	_, err = f.at(14, 9, 0).ClockIn(ctx)
	require.NoError(t, err)
}

func TestClockIn_InactiveEmployee(t *testing.T) {
	f := newFixture()
	e := f.employees.employees["emp-hourly"]
	e.IsActive = false
	f.employees.employees["emp-hourly"] = e

	_, err := f.at(13, 9, 0).ClockIn(as("emp-hourly", user.RoleEmployee))
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)

	_, err = f.at(13, 9, 0).ClockIn(context.Background())
	assert.ErrorIs(t, err, user.ErrUnauthenticated)
}

func TestGetMyAttendance(t *testing.T) {
	f := newFixture()
	ctx := as("emp-monthly", user.RoleEmployee)

	for _, day := range []int{2, 3, 27} {
		_, err := f.at(day, 9, 0).ClockIn(ctx)
		require.NoError(t, err)
	}

	records, err := f.at(27, 12, 0).GetMyAttendance(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2026-02-02", records[0].WorkDate)

	records, err = f.at(27, 12, 0).GetMyAttendance(ctx, "2026-01")
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = f.at(27, 12, 0).GetMyAttendance(ctx, "Feb 2026")
	assert.Error(t, err)
}

func TestUpdateAttendance(t *testing.T) {
	f := newFixture()
	emp := as("emp-monthly", user.RoleEmployee)
	mgr := as("mgr-1", user.RoleManager)

	in, err := f.at(13, 9, 30).ClockIn(emp)
	require.NoError(t, err)
	_, err = f.at(13, 18, 0).ClockOut(emp, attendance.ClockOutRequest{})
	require.NoError(t, err)

	svc := f.at(14, 10, 0)

	_, err = svc.UpdateAttendance(emp, in.ID, attendance.UpdateAttendanceRequest{ClockIn: str("09:00"), Reason: "badge reader down"})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	_, err = svc.UpdateAttendance(mgr, in.ID, attendance.UpdateAttendanceRequest{ClockOut: str("08:00"), Reason: "typo"})
	assert.ErrorIs(t, err, attendance.ErrClockOutBeforeIn)

	_, err = svc.UpdateAttendance(mgr, in.ID, attendance.UpdateAttendanceRequest{ClockIn: str("nine"), Reason: "typo"})
	assert.Error(t, err)

	updated, err := svc.UpdateAttendance(mgr, in.ID, attendance.UpdateAttendanceRequest{ClockIn: str("09:00"), Reason: "badge reader down"})
	require.NoError(t, err)
	assert.Equal(t, "normal", updated.Status)
	assert.Equal(t, 8.0, updated.WorkHours)
	assert.True(t, updated.IsEdited)
	assert.Equal(t, "2026-02-13T09:00:00+07:00", updated.ClockIn)

	logs, err := svc.GetEditLogs(mgr, in.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "2026-02-13T09:30:00+07:00", logs[0].OldClockIn)
	assert.Equal(t, "2026-02-13T09:00:00+07:00", logs[0].NewClockIn)
	assert.Equal(t, "mgr-1", logs[0].EditorID)
	assert.Equal(t, "badge reader down", logs[0].Reason)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notification.TypeAttendanceEdited, f.notifier.sent[0].Type)
	assert.Equal(t, "emp-monthly", f.notifier.sent[0].RecipientID)

	_, err = svc.GetEditLogs(emp, in.ID)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	_, err = svc.GetEditLogs(mgr, "missing")
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestUpdateAttendance_RFC3339AndHourlyBreak(t *testing.T) {
	f := newFixture()
	emp := as("emp-hourly", user.RoleEmployee)
	mgr := as("mgr-1", user.RoleManager)

	in, err := f.at(13, 9, 0).ClockIn(emp)
	require.NoError(t, err)

	svc := f.at(13, 20, 0)
	_, err = svc.UpdateAttendance(mgr, in.ID, attendance.UpdateAttendanceRequest{BreakHours: float(1.25), Reason: "forgot break"})
	assert.ErrorIs(t, err, attendance.ErrInvalidBreakHours)

	updated, err := svc.UpdateAttendance(mgr, in.ID, attendance.UpdateAttendanceRequest{
		ClockOut:   str("2026-02-13T11:00:00Z"),
		BreakHours: float(1),
		Reason:     "forgot to clock out",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ClockOut)
	assert.Equal(t, "2026-02-13T18:00:00+07:00", *updated.ClockOut)
	assert.Equal(t, 8.0, updated.WorkHours)
	assert.Equal(t, "normal", updated.Status)
}

func TestListAttendance(t *testing.T) {
	f := newFixture()

	_, err := f.at(13, 9, 0).ClockIn(as("emp-monthly", user.RoleEmployee))
	require.NoError(t, err)
	_, err = f.at(13, 9, 0).ClockIn(as("emp-hourly", user.RoleEmployee))
	require.NoError(t, err)

	_, err = f.at(13, 12, 0).ListAttendance(as("emp-hourly", user.RoleEmployee), attendance.AttendanceFilter{})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	resp, err := f.at(13, 12, 0).ListAttendance(as("mgr-1", user.RoleManager), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.TotalCount)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	assert.Equal(t, int64(1), resp.TotalPages)
	assert.Len(t, resp.Attendances, 2)
}
