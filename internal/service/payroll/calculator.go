package payroll

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type CalculatorImpl struct {
	employee.EmployeeRepository
	payroll.SalaryRepository
	attendance.AttendanceRepository
	leave.LeaveRequestRepository
	clock civil.Clock
	retry database.RetryPolicy
}

func NewCalculator(
	employeeRepository employee.EmployeeRepository,
	salaryRepository payroll.SalaryRepository,
	attendanceRepository attendance.AttendanceRepository,
	leaveRequestRepository leave.LeaveRequestRepository,
	clock civil.Clock,
	retry database.RetryPolicy,
) payroll.Calculator {
	return &CalculatorImpl{
		EmployeeRepository:     employeeRepository,
		SalaryRepository:       salaryRepository,
		AttendanceRepository:   attendanceRepository,
		LeaveRequestRepository: leaveRequestRepository,
		clock:                  clock,
		retry:                  retry,
	}
}

// monthData is everything a live computation reads.
type monthData struct {
	employee    employee.Employee
	record      *payroll.SalaryRecord
	attendances []attendance.Attendance
	leaves      []leave.LeaveRequest
}

// Calculate implements payroll.Calculator.
func (c *CalculatorImpl) Calculate(ctx context.Context, employeeID string, ym civil.YearMonth, forceLive bool) (payroll.SalaryBreakdown, error) {
	var data monthData

	err := database.Retry(ctx, c.retry, func(ctx context.Context) error {
		emp, err := c.EmployeeRepository.GetByID(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to get employee: %w", err)
		}
		data.employee = emp

		data.record = nil
		rec, err := c.SalaryRepository.Get(ctx, employeeID, ym.String())
		if err != nil && !errors.Is(err, payroll.ErrSalaryRecordNotFound) {
			return fmt.Errorf("failed to get salary record: %w", err)
		}
		if err == nil {
			data.record = &rec
		}
		return nil
	})
	if err != nil {
		return payroll.SalaryBreakdown{}, err
	}

	if !forceLive && data.record != nil && data.record.IsSettled() {
		return data.record.SettledBreakdown(), nil
	}

	from, to := ym.FirstDay(), ym.LastDay()
	err = database.Retry(ctx, c.retry, func(ctx context.Context) error {
		atts, err := c.AttendanceRepository.ListByEmployeeAndRange(ctx, employeeID, from, to)
		if err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}
		leaves, err := c.LeaveRequestRepository.ListApprovedOverlapping(ctx, employeeID, from, to)
		if err != nil {
			return fmt.Errorf("failed to list approved leave: %w", err)
		}
		data.attendances, data.leaves = atts, leaves
		return nil
	})
	if err != nil {
		return payroll.SalaryBreakdown{}, err
	}

	return payroll.SalaryBreakdown{
		Status:  payroll.StatusUnsettled,
		Figures: computeFigures(data, ym, c.clock),
	}, nil
}

func computeFigures(data monthData, ym civil.YearMonth, clock civil.Clock) payroll.SalaryFigures {
	emp := data.employee
	f := payroll.SalaryFigures{
		EmployeeID: emp.ID,
		YearMonth:  ym.String(),
		SalaryType: string(emp.SalaryType),
		Rate:       emp.SalaryAmount,
		Bonus:      decimal.Zero,
		LeaveDays:  map[string]float64{},
		ComputedAt: clock.Now(),
	}

	var workHours, breakHours float64
	for _, att := range data.attendances {
		workHours += att.WorkHours
		breakHours += att.BreakHours
		f.AttendanceDays++
		if att.Status.IsLate() {
			f.LateCount++
		}
		if att.Status.IsEarlyLeave() {
			f.EarlyLeaveCount++
		}
	}
	f.WorkHours = attendance.Round2(workHours)
	f.TotalBreakHours = attendance.Round2(breakHours)

	for _, lr := range data.leaves {
		days := leaveDaysInMonth(lr, ym)
		if days <= 0 {
			continue
		}
		f.LeaveDays[string(lr.LeaveType)] += days
		f.TotalLeaveDays += days
	}
	for k, v := range f.LeaveDays {
		f.LeaveDays[k] = attendance.Round2(v)
	}
	f.TotalLeaveDays = attendance.Round2(f.TotalLeaveDays)

	switch emp.SalaryType {
	case employee.SalaryTypeHourly:
		f.BaseSalary = decimal.NewFromFloat(f.WorkHours).Mul(emp.SalaryAmount).Round(2)
	default:
		f.BaseSalary = emp.SalaryAmount
	}

	if data.record != nil {
		f.Bonus = data.record.Bonus
		f.Notes = data.record.Notes
	}
	f.TotalSalary = f.BaseSalary.Add(f.Bonus)

	return f
}

// leaveDaysInMonth charges a request to the month in proportion to the
// calendar days it covers there, snapped to half days.
func leaveDaysInMonth(lr leave.LeaveRequest, ym civil.YearMonth) float64 {
	overlap := ym.OverlapDays(lr.StartDate, lr.EndDate)
	if overlap == 0 {
		return 0
	}
	span := int(civil.Day(lr.EndDate).Sub(civil.Day(lr.StartDate)).Hours()/24) + 1
	if overlap >= span {
		return lr.Days
	}
	return math.Round(lr.Days*float64(overlap)/float64(span)*2) / 2
}
