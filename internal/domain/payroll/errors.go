package payroll

import "errors"

var (
	ErrSalaryRecordNotFound = errors.New("salary record not found")
	ErrAlreadySettled       = errors.New("salary for this month is already settled")
	ErrNotSettled           = errors.New("salary for this month is not settled")
	ErrSettledReadOnly      = errors.New("salary for this month is settled, resettle it before editing")
	ErrInvalidYearMonth     = errors.New("year_month must be in YYYY-MM format")
	ErrNegativeBonus        = errors.New("bonus must be a non-negative number")
	ErrEmployeeNotFound     = errors.New("employee not found")
)
