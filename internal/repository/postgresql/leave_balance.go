package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type balanceRepositoryImpl struct {
	db *database.DB
}

func NewBalanceRepository(db *database.DB) leave.BalanceRepository {
	return &balanceRepositoryImpl{db: db}
}

func (r *balanceRepositoryImpl) get(ctx context.Context, employeeID string, year int, lock bool) (leave.Balance, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, year, total_days, used_days, created_at, updated_at
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2
	`
	if lock {
		query += " FOR UPDATE"
	}

	var b leave.Balance
	err := q.QueryRow(ctx, query, employeeID, year).Scan(
		&b.ID, &b.EmployeeID, &b.Year, &b.TotalDays, &b.UsedDays, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.Balance{}, leave.ErrBalanceNotFound
		}
		return leave.Balance{}, database.Classify(fmt.Errorf("failed to get leave balance: %w", err))
	}
	return b, nil
}

// Get implements leave.BalanceRepository.
func (r *balanceRepositoryImpl) Get(ctx context.Context, employeeID string, year int) (leave.Balance, error) {
	return r.get(ctx, employeeID, year, false)
}

// GetForUpdate implements leave.BalanceRepository.
func (r *balanceRepositoryImpl) GetForUpdate(ctx context.Context, employeeID string, year int) (leave.Balance, error) {
	return r.get(ctx, employeeID, year, true)
}

// CreateIfAbsent implements leave.BalanceRepository.
func (r *balanceRepositoryImpl) CreateIfAbsent(ctx context.Context, balance leave.Balance) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (id, employee_id, year, total_days, used_days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, year) DO NOTHING
	`
	if _, err := q.Exec(ctx, query, newID(), balance.EmployeeID, balance.Year, balance.TotalDays, balance.UsedDays); err != nil {
		return database.Classify(fmt.Errorf("failed to create leave balance: %w", err))
	}
	return nil
}

// UpsertTotal implements leave.BalanceRepository. Used days are left alone.
func (r *balanceRepositoryImpl) UpsertTotal(ctx context.Context, employeeID string, year int, total float64) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (id, employee_id, year, total_days, used_days)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (employee_id, year) DO UPDATE SET
			total_days = EXCLUDED.total_days,
			updated_at = NOW()
	`
	if _, err := q.Exec(ctx, query, newID(), employeeID, year, total); err != nil {
		return database.Classify(fmt.Errorf("failed to upsert leave balance: %w", err))
	}
	return nil
}

// UpdateUsedDays implements leave.BalanceRepository.
func (r *balanceRepositoryImpl) UpdateUsedDays(ctx context.Context, employeeID string, year int, used float64) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET used_days = $1, updated_at = NOW()
		WHERE employee_id = $2 AND year = $3
	`
	tag, err := q.Exec(ctx, query, used, employeeID, year)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to update leave balance: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrBalanceNotFound
	}
	return nil
}
