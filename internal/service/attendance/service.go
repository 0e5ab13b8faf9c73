package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	notifier notification.Notifier
	clock    civil.Clock
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepository attendance.AttendanceRepository,
	employeeRepository employee.EmployeeRepository,
	notifier notification.Notifier,
	clock civil.Clock,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepository,
		EmployeeRepository:   employeeRepository,
		notifier:             notifier,
		clock:                clock,
	}
}

func (a *AttendanceServiceImpl) activeEmployee(ctx context.Context, id string) (employee.Employee, error) {
	emp, err := a.EmployeeRepository.GetByID(ctx, id)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if !emp.IsActive {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

// breakFor returns the break deducted from a shift: the profile break of
// monthly employees, or the chosen option of hourly employees.
func breakFor(emp employee.Employee, chosen *float64) (float64, error) {
	if emp.SalaryType != employee.SalaryTypeHourly {
		return emp.BreakHours, nil
	}
	if chosen == nil {
		return 0, nil
	}
	if !employee.IsHourlyBreakOption(*chosen) {
		return 0, attendance.ErrInvalidBreakHours
	}
	return *chosen, nil
}

// evaluate recomputes status and hours from the record's clock times.
func evaluate(att *attendance.Attendance, emp employee.Employee, loc *time.Location) {
	in := civil.TimeOfDayOf(att.ClockIn, loc)
	var out *civil.TimeOfDay
	if att.ClockOut != nil {
		// leaving after midnight is never an early leave
		if !civil.Day(att.ClockOut.In(loc)).After(civil.Day(att.WorkDate)) {
			t := civil.TimeOfDayOf(*att.ClockOut, loc)
			out = &t
		}
		att.WorkHours = attendance.CalculateWorkHours(att.ClockIn, *att.ClockOut, att.BreakHours)
	} else {
		att.WorkHours = 0
	}
	att.Status = attendance.DetermineStatus(&in, out, emp.WorkStartTime, emp.WorkEndTime)
}

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context) (attendance.AttendanceResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	emp, err := a.activeEmployee(ctx, actor.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.clock.Now()
	workDate := civil.Day(now)

	_, err = a.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ID, workDate)
	if err == nil {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyClockedIn
	}
	if !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	att := attendance.Attendance{
		EmployeeID: emp.ID,
		WorkDate:   workDate,
		ClockIn:    now,
	}
	evaluate(&att, emp, a.clock.Location())

	created, err := a.AttendanceRepository.Create(ctx, att)
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyClockedIn) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return attendance.ToResponse(created, a.clock.Location()), nil
}

// ClockOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	emp, err := a.activeEmployee(ctx, actor.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	breakHours, err := breakFor(emp, req.BreakHours)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.clock.Now()
	att, err := a.openAttendance(ctx, emp.ID, civil.Day(now))
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	att.ClockOut = &now
	att.BreakHours = breakHours
	evaluate(&att, emp, a.clock.Location())

	if err := a.AttendanceRepository.Update(ctx, att); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	return attendance.ToResponse(att, a.clock.Location()), nil
}

// openAttendance finds the record to clock out of: today's, or an
// unfinished one from yesterday for a shift that crossed midnight.
func (a *AttendanceServiceImpl) openAttendance(ctx context.Context, employeeID string, today time.Time) (attendance.Attendance, error) {
	att, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, today)
	if err == nil {
		if att.ClockOut != nil {
			return attendance.Attendance{}, attendance.ErrAlreadyClockedOut
		}
		return att, nil
	}
	if !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	prev, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, today.AddDate(0, 0, -1))
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.Attendance{}, attendance.ErrNotClockedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	if prev.ClockOut != nil {
		return attendance.Attendance{}, attendance.ErrNotClockedIn
	}
	return prev, nil
}

// GetMyAttendance implements attendance.AttendanceService. An empty month
// means the current civil month.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, yearMonth string) ([]attendance.AttendanceResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	ym := civil.YearMonthOf(a.clock.Today())
	if yearMonth != "" {
		ym, err = civil.ParseYearMonth(yearMonth)
		if err != nil {
			return nil, validator.New("month", "month must be in YYYY-MM format")
		}
	}

	records, err := a.AttendanceRepository.ListByEmployeeAndRange(ctx, actor.EmployeeID, ym.FirstDay(), ym.LastDay())
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	resp := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, attendance.ToResponse(r, a.clock.Location()))
	}
	return resp, nil
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if _, err := user.RequirePermission(ctx, user.PermissionAttendanceViewAll); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := a.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	resp := attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  (total + int64(filter.Limit) - 1) / int64(filter.Limit),
		Attendances: make([]attendance.AttendanceResponse, 0, len(records)),
	}
	for _, r := range records {
		resp.Attendances = append(resp.Attendances, attendance.ToResponse(r, a.clock.Location()))
	}
	return resp, nil
}

// parseClock reads an edited clock time: a full RFC3339 timestamp, or a
// wall-clock time on the record's work date.
func parseClock(field, s string, workDate time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	tod, err := civil.ParseTimeOfDay(s)
	if err != nil {
		return time.Time{}, validator.New(field, field+" must be an RFC3339 timestamp or HH:MM[:SS]")
	}
	return tod.On(workDate, loc), nil
}

// UpdateAttendance implements attendance.AttendanceService. Status and
// hours are recomputed and the previous values are kept in an edit log.
func (a *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, id string, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	actor, err := user.RequirePermission(ctx, user.PermissionAttendanceEdit)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	loc := a.clock.Location()
	var updated attendance.Attendance
	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		att, err := a.AttendanceRepository.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}
		emp, err := a.EmployeeRepository.GetByID(ctx, att.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to get employee: %w", err)
		}

		editLog := attendance.EditLog{
			AttendanceID:  att.ID,
			EditorID:      actor.EmployeeID,
			OldClockIn:    att.ClockIn,
			OldClockOut:   att.ClockOut,
			OldBreakHours: att.BreakHours,
			Reason:        req.Reason,
		}

		if req.ClockIn != nil {
			if att.ClockIn, err = parseClock("clock_in", *req.ClockIn, att.WorkDate, loc); err != nil {
				return err
			}
		}
		if req.ClockOut != nil {
			out, err := parseClock("clock_out", *req.ClockOut, att.WorkDate, loc)
			if err != nil {
				return err
			}
			att.ClockOut = &out
		}
		if req.BreakHours != nil {
			if emp.SalaryType == employee.SalaryTypeHourly && !employee.IsHourlyBreakOption(*req.BreakHours) {
				return attendance.ErrInvalidBreakHours
			}
			att.BreakHours = *req.BreakHours
		}
		if att.ClockOut != nil && att.ClockOut.Before(att.ClockIn) {
			return attendance.ErrClockOutBeforeIn
		}

		evaluate(&att, emp, loc)
		att.IsEdited = true

		if err := a.AttendanceRepository.Update(ctx, att); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}

		editLog.NewClockIn = att.ClockIn
		editLog.NewClockOut = att.ClockOut
		editLog.NewBreakHours = att.BreakHours
		if err := a.AttendanceRepository.CreateEditLog(ctx, editLog); err != nil {
			return fmt.Errorf("failed to create edit log: %w", err)
		}

		updated = att
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if updated.EmployeeID != actor.EmployeeID {
		a.notifier.Notify(ctx, notification.NotifyRequest{
			RecipientID: updated.EmployeeID,
			SenderID:    &actor.EmployeeID,
			Type:        notification.TypeAttendanceEdited,
			Title:       "Attendance corrected",
			Message:     fmt.Sprintf("Your attendance on %s was corrected: %s", updated.WorkDate.Format(civil.DateLayout), req.Reason),
			Link:        "/attendance/me?month=" + civil.YearMonthOf(updated.WorkDate).String(),
			Data:        map[string]interface{}{"attendance_id": updated.ID},
		})
	}

	return attendance.ToResponse(updated, loc), nil
}

// GetEditLogs implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetEditLogs(ctx context.Context, id string) ([]attendance.EditLogResponse, error) {
	if _, err := user.RequirePermission(ctx, user.PermissionAttendanceViewAll); err != nil {
		return nil, err
	}
	if _, err := a.AttendanceRepository.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}

	logs, err := a.AttendanceRepository.ListEditLogs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list edit logs: %w", err)
	}

	resp := make([]attendance.EditLogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, attendance.ToEditLogResponse(l, a.clock.Location()))
	}
	return resp, nil
}
