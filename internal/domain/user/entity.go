package user

import "context"

type Role string

const (
	RoleEmployee   Role = "employee"    // Regular employee
	RoleManager    Role = "manager"     // Can review leave, settle salary, run accrual
	RoleSuperAdmin Role = "super_admin" // Full access
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleSuperAdmin:
		return true
	}
	return false
}

// IsManager reports manager-level access; super admins included.
func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleSuperAdmin
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	EmployeeID string
	Role       Role
}

func (a Actor) IsManager() bool {
	return a.Role.IsManager()
}

// CanApprove checks if the actor can review requests
func (a Actor) CanApprove() bool {
	return a.IsManager()
}

type actorKey struct{}

// WithActor stores the caller in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the caller stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || a.EmployeeID == "" {
		return Actor{}, false
	}
	return a, true
}

// RequireAuthenticated returns the caller or ErrUnauthenticated.
func RequireAuthenticated(ctx context.Context) (Actor, error) {
	a, ok := ActorFromContext(ctx)
	if !ok {
		return Actor{}, ErrUnauthenticated
	}
	return a, nil
}

// RequireManager returns the caller when it holds manager-level access.
func RequireManager(ctx context.Context) (Actor, error) {
	a, err := RequireAuthenticated(ctx)
	if err != nil {
		return Actor{}, err
	}
	if !a.IsManager() {
		return Actor{}, ErrManagerAccessRequired
	}
	return a, nil
}

// RequirePermission returns the caller when its role grants p.
func RequirePermission(ctx context.Context, p Permission) (Actor, error) {
	a, err := RequireAuthenticated(ctx)
	if err != nil {
		return Actor{}, err
	}
	if !HasPermission(a.Role, p) {
		return Actor{}, ErrInsufficientPermissions
	}
	return a, nil
}
