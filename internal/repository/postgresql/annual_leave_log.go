package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/annualleave"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
)

type annualLeaveLogRepository struct {
	db *database.DB
}

func NewAnnualLeaveLogRepository(db *database.DB) annualleave.LogRepository {
	return &annualLeaveLogRepository{db: db}
}

// Create implements annualleave.LogRepository.
func (r *annualLeaveLogRepository) Create(ctx context.Context, log annualleave.Log) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO annual_leave_logs (id, employee_id, tenure_year, action, days_change, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.Exec(ctx, query, newID(), log.EmployeeID, log.TenureYear, log.Action, log.DaysChange, log.Description)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to create annual leave log: %w", err))
	}
	return nil
}

// ListByEmployee implements annualleave.LogRepository.
func (r *annualLeaveLogRepository) ListByEmployee(ctx context.Context, employeeID string) ([]annualleave.Log, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, tenure_year, action, days_change, description, created_at
		FROM annual_leave_logs
		WHERE employee_id = $1
		ORDER BY created_at DESC
	`
	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to query annual leave logs: %w", err))
	}
	defer rows.Close()

	var logs []annualleave.Log
	for rows.Next() {
		var l annualleave.Log
		if err := rows.Scan(&l.ID, &l.EmployeeID, &l.TenureYear, &l.Action, &l.DaysChange, &l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan annual leave log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate annual leave logs: %w", err))
	}
	return logs, nil
}
