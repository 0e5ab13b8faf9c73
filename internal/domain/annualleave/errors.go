package annualleave

import "errors"

var (
	ErrAccrualAlreadyRunning = errors.New("annual leave accrual is already running")
	ErrInvalidRunDate        = errors.New("run date must be in YYYY-MM-DD format")
)
