package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `
	a.id, a.employee_id, a.work_date, a.clock_in, a.clock_out,
	a.work_hours, a.break_hours, a.status, a.is_edited, a.created_at, a.updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// withName expects a trailing employees.full_name column.
func scanAttendance(row pgx.Row, withName bool) (attendance.Attendance, error) {
	var att attendance.Attendance
	dest := []interface{}{
		&att.ID, &att.EmployeeID, &att.WorkDate, &att.ClockIn, &att.ClockOut,
		&att.WorkHours, &att.BreakHours, &att.Status, &att.IsEdited, &att.CreatedAt, &att.UpdatedAt,
	}
	if withName {
		dest = append(dest, &att.EmployeeName)
	}
	if err := row.Scan(dest...); err != nil {
		return attendance.Attendance{}, err
	}
	return att, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	ctx, cancel := a.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances AS a (
			id, employee_id, work_date, clock_in, clock_out, work_hours, break_hours, status, is_edited
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query,
		newID(), newAttendance.EmployeeID, newAttendance.WorkDate,
		newAttendance.ClockIn, newAttendance.ClockOut,
		newAttendance.WorkHours, newAttendance.BreakHours, newAttendance.Status, newAttendance.IsEdited,
	), false)
	if err != nil {
		if isUniqueViolation(err, "uk_attendances_employee_date") {
			return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
		}
		return attendance.Attendance{}, database.Classify(fmt.Errorf("failed to create attendance: %w", err))
	}
	return created, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	ctx, cancel := a.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `, e.full_name
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1
	`
	att, err := scanAttendance(q.QueryRow(ctx, query, id), true)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, database.Classify(fmt.Errorf("failed to get attendance: %w", err))
	}
	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) (attendance.Attendance, error) {
	ctx, cancel := a.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.employee_id = $1 AND a.work_date = $2
	`
	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, workDate), false)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, database.Classify(fmt.Errorf("failed to get attendance: %w", err))
	}
	return att, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	ctx, cancel := a.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET clock_in = $1, clock_out = $2, work_hours = $3, break_hours = $4,
			status = $5, is_edited = $6, updated_at = NOW()
		WHERE id = $7
	`
	tag, err := q.Exec(ctx, query,
		att.ClockIn, att.ClockOut, att.WorkHours, att.BreakHours, att.Status, att.IsEdited, att.ID,
	)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to update attendance: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// ListByEmployeeAndRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	ctx, cancel := a.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.employee_id = $1 AND a.work_date BETWEEN $2 AND $3
		ORDER BY a.work_date ASC
	`
	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to query attendances: %w", err))
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate attendances: %w", err))
	}
	return attendances, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	ctx, cancel := a.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.work_date >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.work_date <= $%d::date", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	// Status holds space separated flags, so "late" also matches "late early_leave".
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND $%d = ANY(string_to_array(a.status, ' '))", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := `SELECT COUNT(*) FROM attendances a WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.Classify(fmt.Errorf("failed to count attendances: %w", err))
	}

	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	selectQuery := fmt.Sprintf(`
		SELECT %s, e.full_name AS employee_name
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE %s
		ORDER BY a.work_date %s, a.clock_in %s
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, sortOrder, sortOrder, argIdx, argIdx+1)
	args = append(args, limit, offset(filter.Page, limit))

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, database.Classify(fmt.Errorf("failed to query attendances: %w", err))
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, database.Classify(fmt.Errorf("failed to iterate attendances: %w", err))
	}

	return attendances, total, nil
}

// CreateEditLog implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateEditLog(ctx context.Context, log attendance.EditLog) error {
	ctx, cancel := a.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_edit_logs (
			id, attendance_id, editor_id, old_clock_in, new_clock_in,
			old_clock_out, new_clock_out, old_break_hours, new_break_hours, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q.Exec(ctx, query,
		newID(), log.AttendanceID, log.EditorID, log.OldClockIn, log.NewClockIn,
		log.OldClockOut, log.NewClockOut, log.OldBreakHours, log.NewBreakHours, log.Reason,
	)
	if err != nil {
		return database.Classify(fmt.Errorf("failed to create attendance edit log: %w", err))
	}
	return nil
}

// ListEditLogs implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListEditLogs(ctx context.Context, attendanceID string) ([]attendance.EditLog, error) {
	ctx, cancel := a.db.WithTimeout(ctx)
	defer cancel()

	q := GetQuerier(ctx, a.db)

	query := `
		SELECT l.id, l.attendance_id, l.editor_id, l.old_clock_in, l.new_clock_in,
			l.old_clock_out, l.new_clock_out, l.old_break_hours, l.new_break_hours,
			l.reason, l.created_at, e.full_name
		FROM attendance_edit_logs l
		LEFT JOIN employees e ON e.id = l.editor_id
		WHERE l.attendance_id = $1
		ORDER BY l.created_at ASC
	`
	rows, err := q.Query(ctx, query, attendanceID)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to query attendance edit logs: %w", err))
	}
	defer rows.Close()

	var logs []attendance.EditLog
	for rows.Next() {
		var l attendance.EditLog
		if err := rows.Scan(
			&l.ID, &l.AttendanceID, &l.EditorID, &l.OldClockIn, &l.NewClockIn,
			&l.OldClockOut, &l.NewClockOut, &l.OldBreakHours, &l.NewBreakHours,
			&l.Reason, &l.CreatedAt, &l.EditorName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance edit log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(fmt.Errorf("failed to iterate attendance edit logs: %w", err))
	}
	return logs, nil
}
