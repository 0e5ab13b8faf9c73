package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const cancellationColumns = `
	c.id, c.leave_request_id, c.employee_id, c.reason, c.status,
	c.reviewed_by, c.reviewed_at, c.created_at, c.updated_at`

type cancellationRepositoryImpl struct {
	db *database.DB
}

func NewCancellationRepository(db *database.DB) leave.CancellationRepository {
	return &cancellationRepositoryImpl{db: db}
}

func cancellationDest(c *leave.CancellationRequest) []interface{} {
	return []interface{}{
		&c.ID, &c.LeaveRequestID, &c.EmployeeID, &c.Reason, &c.Status,
		&c.ReviewedBy, &c.ReviewedAt, &c.CreatedAt, &c.UpdatedAt,
	}
}

// Create implements leave.CancellationRepository.
func (r *cancellationRepositoryImpl) Create(ctx context.Context, req leave.CancellationRequest) (leave.CancellationRequest, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_cancellation_requests AS c (id, leave_request_id, employee_id, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + cancellationColumns

	var created leave.CancellationRequest
	err := q.QueryRow(ctx, query,
		newID(), req.LeaveRequestID, req.EmployeeID, req.Reason, req.Status,
	).Scan(cancellationDest(&created)...)
	if err != nil {
		// At most one pending cancellation per leave, enforced by a partial unique index.
		if isUniqueViolation(err, "uk_leave_cancellation_pending") {
			return leave.CancellationRequest{}, leave.ErrCancellationAlreadyPending
		}
		return leave.CancellationRequest{}, database.Classify(fmt.Errorf("failed to create cancellation request: %w", err))
	}
	return created, nil
}

// GetByID implements leave.CancellationRepository.
func (r *cancellationRepositoryImpl) GetByID(ctx context.Context, id string) (leave.CancellationRequest, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + cancellationColumns + `, e.full_name
		FROM leave_cancellation_requests c
		LEFT JOIN employees e ON e.id = c.employee_id
		WHERE c.id = $1
	`
	var c leave.CancellationRequest
	err := q.QueryRow(ctx, query, id).Scan(append(cancellationDest(&c), &c.EmployeeName)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.CancellationRequest{}, leave.ErrCancellationNotFound
		}
		return leave.CancellationRequest{}, database.Classify(fmt.Errorf("failed to get cancellation request: %w", err))
	}
	return c, nil
}

// HasPending implements leave.CancellationRepository.
func (r *cancellationRepositoryImpl) HasPending(ctx context.Context, leaveRequestID string) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_cancellation_requests
			WHERE leave_request_id = $1 AND status = 'pending'
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, leaveRequestID).Scan(&exists); err != nil {
		return false, database.Classify(fmt.Errorf("failed to check pending cancellation: %w", err))
	}
	return exists, nil
}

// List implements leave.CancellationRepository. Each item carries the leave
// it targets.
func (r *cancellationRepositoryImpl) List(ctx context.Context, status *leave.CancellationStatus) ([]leave.CancellationRequest, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + cancellationColumns + `, e.full_name, ` + leaveRequestColumns + `
		FROM leave_cancellation_requests c
		JOIN leave_requests lr ON lr.id = c.leave_request_id
		LEFT JOIN employees e ON e.id = c.employee_id
		WHERE ($1::text IS NULL OR c.status = $1::text)
		ORDER BY c.created_at DESC
	`
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	rows, err := q.Query(ctx, query, statusArg)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to query cancellation requests: %w", err))
	}
	defer rows.Close()

	var items []leave.CancellationRequest
	for rows.Next() {
		var (
			c  leave.CancellationRequest
			lr leave.LeaveRequest
		)
		dest := append(cancellationDest(&c), &c.EmployeeName)
		dest = append(dest, leaveRequestDest(&lr)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan cancellation request: %w", err)
		}
		lr.EmployeeName = c.EmployeeName
		c.Leave = &lr
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate cancellation requests: %w", err))
	}
	return items, nil
}

// UpdateStatus implements leave.CancellationRepository.
func (r *cancellationRepositoryImpl) UpdateStatus(ctx context.Context, id string, from, to leave.CancellationStatus, reviewedBy string) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_cancellation_requests
		SET status = $1, reviewed_by = $2, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING id
	`
	var updatedID string
	err := q.QueryRow(ctx, query, to, reviewedBy, id, from).Scan(&updatedID)
	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return database.Classify(fmt.Errorf("failed to update cancellation request status: %w", err))
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leave_cancellation_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return database.Classify(fmt.Errorf("failed to check cancellation request: %w", err))
	}
	if !exists {
		return leave.ErrCancellationNotFound
	}
	return leave.ErrCancellationAlreadyProcessed
}
