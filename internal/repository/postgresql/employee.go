package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const employeeColumns = `
	id, email, password_hash, full_name, role, salary_type, salary_amount,
	work_start_time, work_end_time, break_hours, onboard_date,
	annual_leave_total, annual_leave_used, last_reset_date,
	is_active, created_at, updated_at`

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		emp        employee.Employee
		start, end pgtype.Time
	)
	err := row.Scan(
		&emp.ID, &emp.Email, &emp.PasswordHash, &emp.FullName, &emp.Role, &emp.SalaryType, &emp.SalaryAmount,
		&start, &end, &emp.BreakHours, &emp.OnboardDate,
		&emp.AnnualLeaveTotal, &emp.AnnualLeaveUsed, &emp.LastResetDate,
		&emp.IsActive, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}
	emp.WorkStartTime = toTimeOfDay(start)
	emp.WorkEndTime = toTimeOfDay(end)
	return emp, nil
}

func (e *employeeRepositoryImpl) getOne(ctx context.Context, query string, arg string) (employee.Employee, error) {
	ctx, cancel := e.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, e.db)
	emp, err := scanEmployee(q.QueryRow(ctx, query, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, database.Classify(fmt.Errorf("failed to get employee: %w", err))
	}
	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return e.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
}

// GetByEmail implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByEmail(ctx context.Context, email string) (employee.Employee, error) {
	return e.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = $1`, strings.ToLower(email))
}

// GetByIDForUpdate implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (employee.Employee, error) {
	return e.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1 FOR UPDATE`, id)
}

// Create implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	ctx, cancel := e.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, e.db)

	query := `
		INSERT INTO employees (
			id, email, password_hash, full_name, role, salary_type, salary_amount,
			work_start_time, work_end_time, break_hours, onboard_date, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + employeeColumns

	created, err := scanEmployee(q.QueryRow(ctx, query,
		newID(), newEmployee.Email, newEmployee.PasswordHash, newEmployee.FullName,
		newEmployee.Role, newEmployee.SalaryType, newEmployee.SalaryAmount,
		fromTimeOfDay(newEmployee.WorkStartTime), fromTimeOfDay(newEmployee.WorkEndTime),
		newEmployee.BreakHours, newEmployee.OnboardDate, newEmployee.IsActive,
	))
	if err != nil {
		if isUniqueViolation(err, "uk_employees_email") {
			return employee.Employee{}, employee.ErrEmailExists
		}
		return employee.Employee{}, database.Classify(fmt.Errorf("failed to create employee: %w", err))
	}
	return created, nil
}

// List implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	ctx, cancel := e.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, e.db)

	where := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.Search != nil && *filter.Search != "" {
		where += fmt.Sprintf(" AND (full_name ILIKE $%d OR email ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}
	if filter.Role != nil && *filter.Role != "" {
		where += fmt.Sprintf(" AND role = $%d", argIdx)
		args = append(args, *filter.Role)
		argIdx++
	}
	if filter.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, database.Classify(fmt.Errorf("failed to count employees: %w", err))
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM employees
		WHERE %s
		ORDER BY full_name ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, employeeColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset(filter.Page, limit))

	employees, err := e.queryMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

func (e *employeeRepositoryImpl) queryMany(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to query employees: %w", err))
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate employees: %w", err))
	}
	return employees, nil
}

// ListActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	ctx, cancel := e.db.WithTimeout(ctx)
	defer cancel()

	return e.queryMany(ctx, `SELECT `+employeeColumns+` FROM employees WHERE is_active = TRUE ORDER BY id`)
}

// ListActiveManagers implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveManagers(ctx context.Context) ([]employee.Employee, error) {
	ctx, cancel := e.db.WithTimeout(ctx)
	defer cancel()

	return e.queryMany(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE is_active = TRUE AND role IN ('manager', 'super_admin')
		ORDER BY id
	`)
}

// Update implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Update(ctx context.Context, id string, req employee.UpdateEmployeeRequest) error {
	ctx, cancel := e.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, e.db)

	updates := make([]string, 0)
	args := make([]interface{}, 0)
	argIdx := 1

	set := func(column string, value interface{}) {
		updates = append(updates, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if req.FullName != nil {
		set("full_name", strings.TrimSpace(*req.FullName))
	}
	if req.Role != nil {
		set("role", *req.Role)
	}
	if req.SalaryType != nil {
		set("salary_type", *req.SalaryType)
	}
	if req.SalaryAmount != nil {
		amount, err := decimal.NewFromString(*req.SalaryAmount)
		if err != nil {
			return fmt.Errorf("invalid salary amount: %w", err)
		}
		set("salary_amount", amount)
	}
	if req.WorkStartTime != nil {
		tod, err := civil.ParseTimeOfDay(*req.WorkStartTime)
		if err != nil {
			return err
		}
		set("work_start_time", fromTimeOfDay(tod))
	}
	if req.WorkEndTime != nil {
		tod, err := civil.ParseTimeOfDay(*req.WorkEndTime)
		if err != nil {
			return err
		}
		set("work_end_time", fromTimeOfDay(tod))
	}
	if req.BreakHours != nil {
		set("break_hours", *req.BreakHours)
	}
	if req.OnboardDate != nil {
		d, err := civil.ParseDate(*req.OnboardDate)
		if err != nil {
			return err
		}
		set("onboard_date", d)
	}

	if len(updates) == 0 {
		return nil
	}
	updates = append(updates, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE employees SET %s WHERE id = $%d`, strings.Join(updates, ", "), argIdx)
	args = append(args, id)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to update employee: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// UpdateAnnualLeave implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) UpdateAnnualLeave(ctx context.Context, id string, total, used float64, lastResetDate time.Time) error {
	return e.exec(ctx, `
		UPDATE employees
		SET annual_leave_total = $1, annual_leave_used = $2, last_reset_date = $3, updated_at = NOW()
		WHERE id = $4
	`, total, used, lastResetDate, id)
}

// SetAnnualLeaveUsed implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) SetAnnualLeaveUsed(ctx context.Context, id string, used float64) error {
	return e.exec(ctx, `
		UPDATE employees
		SET annual_leave_used = $1, updated_at = NOW()
		WHERE id = $2
	`, used, id)
}

// Deactivate implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Deactivate(ctx context.Context, id string) error {
	return e.exec(ctx, `
		UPDATE employees
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`, id)
}

func (e *employeeRepositoryImpl) exec(ctx context.Context, query string, args ...interface{}) error {
	ctx, cancel := e.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, e.db)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to update employee: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}
