package user

import "errors"

var (
	ErrUnauthenticated         = errors.New("authentication required")
	ErrManagerAccessRequired   = errors.New("manager access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrInvalidRole             = errors.New("invalid role")
)
