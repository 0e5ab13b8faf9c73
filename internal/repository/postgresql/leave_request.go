package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveRequestColumns = `
	lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date, lr.days, lr.reason,
	lr.status, lr.reviewed_by, lr.reviewed_at, lr.review_note, lr.created_at, lr.updated_at`

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

func leaveRequestDest(lr *leave.LeaveRequest) []interface{} {
	return []interface{}{
		&lr.ID, &lr.EmployeeID, &lr.LeaveType, &lr.StartDate, &lr.EndDate, &lr.Days, &lr.Reason,
		&lr.Status, &lr.ReviewedBy, &lr.ReviewedAt, &lr.ReviewNote, &lr.CreatedAt, &lr.UpdatedAt,
	}
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests AS lr (
			id, employee_id, leave_type, start_date, end_date, days, reason, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + leaveRequestColumns

	var created leave.LeaveRequest
	err := q.QueryRow(ctx, query,
		newID(), request.EmployeeID, request.LeaveType, request.StartDate, request.EndDate,
		request.Days, request.Reason, request.Status,
	).Scan(leaveRequestDest(&created)...)
	if err != nil {
		return leave.LeaveRequest{}, database.Classify(fmt.Errorf("failed to create leave request: %w", err))
	}
	return created, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leaveRequestColumns + `, e.full_name
		FROM leave_requests lr
		LEFT JOIN employees e ON e.id = lr.employee_id
		WHERE lr.id = $1
	`
	var lr leave.LeaveRequest
	err := q.QueryRow(ctx, query, id).Scan(append(leaveRequestDest(&lr), &lr.EmployeeName)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, database.Classify(fmt.Errorf("failed to get leave request: %w", err))
	}
	return lr, nil
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	whereClause := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		whereClause += fmt.Sprintf(" AND lr.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.LeaveType != nil && *filter.LeaveType != "" {
		whereClause += fmt.Sprintf(" AND lr.leave_type = $%d", argIdx)
		args = append(args, *filter.LeaveType)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		whereClause += fmt.Sprintf(" AND lr.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Year != nil {
		whereClause += fmt.Sprintf(" AND EXTRACT(YEAR FROM lr.start_date) = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM leave_requests lr WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, database.Classify(fmt.Errorf("failed to count leave requests: %w", err))
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT %s, e.full_name
		FROM leave_requests lr
		LEFT JOIN employees e ON e.id = lr.employee_id
		WHERE %s
		ORDER BY lr.created_at DESC
		LIMIT $%d OFFSET $%d
	`, leaveRequestColumns, whereClause, argIdx, argIdx+1)
	args = append(args, limit, offset(filter.Page, limit))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, database.Classify(fmt.Errorf("failed to query leave requests: %w", err))
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		var lr leave.LeaveRequest
		if err := rows.Scan(append(leaveRequestDest(&lr), &lr.EmployeeName)...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, database.Classify(fmt.Errorf("failed to iterate leave requests: %w", err))
	}
	return requests, total, nil
}

// UpdateStatus implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateStatus(ctx context.Context, id string, from, to leave.LeaveRequestStatus, reviewedBy *string, note *string) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET status = $1,
			reviewed_by = COALESCE($2::uuid, reviewed_by),
			reviewed_at = CASE WHEN $2::uuid IS NULL THEN reviewed_at ELSE NOW() END,
			review_note = COALESCE($3::text, review_note),
			updated_at = NOW()
		WHERE id = $4 AND status = $5
		RETURNING id
	`
	var updatedID string
	err := q.QueryRow(ctx, query, to, reviewedBy, note, id, from).Scan(&updatedID)
	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return database.Classify(fmt.Errorf("failed to update leave request status: %w", err))
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leave_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return database.Classify(fmt.Errorf("failed to check leave request: %w", err))
	}
	if !exists {
		return leave.ErrLeaveRequestNotFound
	}
	return leave.ErrLeaveRequestAlreadyProcessed
}

// SumReservedDays implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) SumReservedDays(ctx context.Context, employeeID string, leaveType leave.LeaveType, year int) (float64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(days), 0)::float8
		FROM leave_requests
		WHERE employee_id = $1
			AND leave_type = $2
			AND status IN ('pending', 'approved')
			AND EXTRACT(YEAR FROM start_date) = $3
	`
	var sum float64
	if err := q.QueryRow(ctx, query, employeeID, leaveType, year).Scan(&sum); err != nil {
		return 0, database.Classify(fmt.Errorf("failed to sum reserved leave days: %w", err))
	}
	return sum, nil
}

// SumApprovedDaysSince implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) SumApprovedDaysSince(ctx context.Context, employeeID string, leaveType leave.LeaveType, since time.Time) (float64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(days), 0)::float8
		FROM leave_requests
		WHERE employee_id = $1
			AND leave_type = $2
			AND status = 'approved'
			AND start_date >= $3
	`
	var sum float64
	if err := q.QueryRow(ctx, query, employeeID, leaveType, since).Scan(&sum); err != nil {
		return 0, database.Classify(fmt.Errorf("failed to sum approved leave days: %w", err))
	}
	return sum, nil
}

// ListApprovedOverlapping implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leaveRequestColumns + `
		FROM leave_requests lr
		WHERE lr.employee_id = $1
			AND lr.status = 'approved'
			AND lr.start_date <= $3
			AND lr.end_date >= $2
		ORDER BY lr.start_date ASC
	`
	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to query overlapping leave: %w", err))
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		var lr leave.LeaveRequest
		if err := rows.Scan(leaveRequestDest(&lr)...); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate leave requests: %w", err))
	}
	return requests, nil
}
