package annualleave

import "context"

type LogRepository interface {
	Create(ctx context.Context, log Log) error
	ListByEmployee(ctx context.Context, employeeID string) ([]Log, error)
}
