package employee

import "errors"

var (
	ErrEmployeeNotFound        = errors.New("employee not found")
	ErrEmailExists             = errors.New("email already registered")
	ErrEmployeeAlreadyInactive = errors.New("employee is already inactive")
	ErrEmployeeInactive        = errors.New("employee is inactive")
	ErrCannotDeactivateSelf    = errors.New("cannot deactivate your own account")
	ErrOnboardDateRequired     = errors.New("employee has no onboard date")
	ErrRoleChangeForbidden     = errors.New("only super admins can change roles")
)
