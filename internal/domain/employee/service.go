package employee

import "context"

// EmployeeService defines business logic for employee administration
type EmployeeService interface {
	// GetEmployee returns an employee; employees may only read themselves.
	GetEmployee(ctx context.Context, id string) (EmployeeResponse, error)

	// CreateEmployee registers an account (manager+ only)
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)

	// UpdateEmployee edits profile, salary and schedule (manager+ only)
	UpdateEmployee(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)

	// ListEmployees lists employees with filters (manager+ only)
	ListEmployees(ctx context.Context, filter EmployeeFilter) (ListEmployeeResponse, error)

	// DeactivateEmployee marks the account inactive (manager+ only)
	DeactivateEmployee(ctx context.Context, id string) (EmployeeResponse, error)
}
