package postgresql

import (
	"errors"

	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// TIME columns travel as microseconds since midnight.
func toTimeOfDay(t pgtype.Time) civil.TimeOfDay {
	return civil.TimeOfDay(t.Microseconds / 1_000_000)
}

func fromTimeOfDay(tod civil.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(tod) * 1_000_000, Valid: true}
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
