package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const salaryColumns = `
	s.id, s.employee_id, s.year_month, s.state, s.base_salary, s.bonus, s.total_salary,
	s.work_hours, s.is_paid, s.paid_at, s.paid_by, s.notes, s.settled_data,
	s.computed_at, s.created_at, s.updated_at`

type salaryRepository struct {
	db *database.DB
}

func NewSalaryRepository(db *database.DB) payroll.SalaryRepository {
	return &salaryRepository{db: db}
}

func scanSalaryRecord(row pgx.Row, withName bool) (payroll.SalaryRecord, error) {
	var (
		rec     payroll.SalaryRecord
		settled []byte
	)
	dest := []interface{}{
		&rec.ID, &rec.EmployeeID, &rec.YearMonth, &rec.State, &rec.BaseSalary, &rec.Bonus, &rec.TotalSalary,
		&rec.WorkHours, &rec.IsPaid, &rec.PaidAt, &rec.PaidBy, &rec.Notes, &settled,
		&rec.ComputedAt, &rec.CreatedAt, &rec.UpdatedAt,
	}
	if withName {
		dest = append(dest, &rec.EmployeeName)
	}
	if err := row.Scan(dest...); err != nil {
		return payroll.SalaryRecord{}, err
	}

	snapshot, err := payroll.DecodeSnapshot(settled)
	if err != nil {
		return payroll.SalaryRecord{}, err
	}
	rec.SettledData = snapshot
	return rec, nil
}

// Get implements payroll.SalaryRepository.
func (r *salaryRepository) Get(ctx context.Context, employeeID, yearMonth string) (payroll.SalaryRecord, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + salaryColumns + `
		FROM salary_records s
		WHERE s.employee_id = $1 AND s.year_month = $2
	`
	rec, err := scanSalaryRecord(q.QueryRow(ctx, query, employeeID, yearMonth), false)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.SalaryRecord{}, payroll.ErrSalaryRecordNotFound
		}
		return payroll.SalaryRecord{}, database.Classify(fmt.Errorf("failed to get salary record: %w", err))
	}
	return rec, nil
}

// GetForUpdate implements payroll.SalaryRepository. The row is created
// empty first so concurrent settlements of a fresh month serialize on it.
func (r *salaryRepository) GetForUpdate(ctx context.Context, employeeID, yearMonth string) (payroll.SalaryRecord, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	insert := `
		INSERT INTO salary_records (id, employee_id, year_month, state)
		VALUES ($1, $2, $3, 'live')
		ON CONFLICT (employee_id, year_month) DO NOTHING
	`
	if _, err := q.Exec(ctx, insert, newID(), employeeID, yearMonth); err != nil {
		return payroll.SalaryRecord{}, database.Classify(fmt.Errorf("failed to create salary record: %w", err))
	}

	query := `
		SELECT ` + salaryColumns + `
		FROM salary_records s
		WHERE s.employee_id = $1 AND s.year_month = $2
		FOR UPDATE
	`
	rec, err := scanSalaryRecord(q.QueryRow(ctx, query, employeeID, yearMonth), false)
	if err != nil {
		return payroll.SalaryRecord{}, database.Classify(fmt.Errorf("failed to lock salary record: %w", err))
	}
	return rec, nil
}

// SaveLive implements payroll.SalaryRepository.
func (r *salaryRepository) SaveLive(ctx context.Context, f payroll.SalaryFigures) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_records AS s (
			id, employee_id, year_month, state, base_salary, bonus, total_salary, work_hours, notes, computed_at
		) VALUES ($1, $2, $3, 'live', $4, $5, $6, $7, $8, $9)
		ON CONFLICT (employee_id, year_month) DO UPDATE SET
			base_salary = EXCLUDED.base_salary,
			bonus = EXCLUDED.bonus,
			total_salary = EXCLUDED.total_salary,
			work_hours = EXCLUDED.work_hours,
			computed_at = EXCLUDED.computed_at,
			updated_at = NOW()
		WHERE s.is_paid = FALSE
	`
	tag, err := q.Exec(ctx, query,
		newID(), f.EmployeeID, f.YearMonth, f.BaseSalary, f.Bonus, f.TotalSalary, f.WorkHours, f.Notes, f.ComputedAt,
	)
	if err != nil {
		return false, database.Classify(fmt.Errorf("failed to save salary record: %w", err))
	}
	return tag.RowsAffected() > 0, nil
}

// Settle implements payroll.SalaryRepository.
func (r *salaryRepository) Settle(ctx context.Context, f payroll.SalaryFigures, paidAt time.Time, paidBy string) error {
	snapshot, err := payroll.EncodeSnapshot(f)
	if err != nil {
		return err
	}

	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_records
		SET state = 'settled', is_paid = TRUE, paid_at = $1, paid_by = $2,
			base_salary = $3, bonus = $4, total_salary = $5, work_hours = $6,
			notes = $7, settled_data = $8, computed_at = $9, updated_at = NOW()
		WHERE employee_id = $10 AND year_month = $11 AND is_paid = FALSE
	`
	tag, err := q.Exec(ctx, query,
		paidAt, paidBy, f.BaseSalary, f.Bonus, f.TotalSalary, f.WorkHours,
		f.Notes, snapshot, f.ComputedAt, f.EmployeeID, f.YearMonth,
	)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to settle salary record: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrAlreadySettled
	}
	return nil
}

// Unsettle implements payroll.SalaryRepository.
func (r *salaryRepository) Unsettle(ctx context.Context, employeeID, yearMonth string) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_records
		SET state = 'live', is_paid = FALSE, paid_at = NULL, paid_by = NULL,
			settled_data = NULL, updated_at = NOW()
		WHERE employee_id = $1 AND year_month = $2 AND is_paid = TRUE
	`
	tag, err := q.Exec(ctx, query, employeeID, yearMonth)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to unsettle salary record: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrNotSettled
	}
	return nil
}

// UpdateBonus implements payroll.SalaryRepository. Totals are refreshed by
// the next live save.
func (r *salaryRepository) UpdateBonus(ctx context.Context, employeeID, yearMonth string, bonus decimal.Decimal, notes *string) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_records
		SET bonus = $1, notes = $2, updated_at = NOW()
		WHERE employee_id = $3 AND year_month = $4 AND is_paid = FALSE
	`
	tag, err := q.Exec(ctx, query, bonus, notes, employeeID, yearMonth)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to update salary bonus: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrSettledReadOnly
	}
	return nil
}

// ListByMonth implements payroll.SalaryRepository.
func (r *salaryRepository) ListByMonth(ctx context.Context, yearMonth string) ([]payroll.SalaryRecord, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + salaryColumns + `, e.full_name
		FROM salary_records s
		LEFT JOIN employees e ON e.id = s.employee_id
		WHERE s.year_month = $1
		ORDER BY e.full_name ASC
	`
	rows, err := q.Query(ctx, query, yearMonth)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to query salary records: %w", err))
	}
	defer rows.Close()

	var records []payroll.SalaryRecord
	for rows.Next() {
		rec, err := scanSalaryRecord(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate salary records: %w", err))
	}
	return records, nil
}
