package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireManager(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{"no actor", context.Background(), ErrUnauthenticated},
		{"employee", WithActor(context.Background(), Actor{EmployeeID: "e1", Role: RoleEmployee}), ErrManagerAccessRequired},
		{"manager", WithActor(context.Background(), Actor{EmployeeID: "m1", Role: RoleManager}), nil},
		{"super admin", WithActor(context.Background(), Actor{EmployeeID: "s1", Role: RoleSuperAdmin}), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, err := RequireManager(tt.ctx)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, actor.IsManager())
		})
	}
}

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleEmployee, PermissionLeaveCreate))
	assert.False(t, HasPermission(RoleEmployee, PermissionSalarySettle))
	assert.True(t, HasPermission(RoleManager, PermissionSalarySettle))
	assert.False(t, HasPermission(RoleManager, PermissionEmployeeRole))
	assert.True(t, HasPermission(RoleSuperAdmin, PermissionEmployeeRole))
	assert.False(t, HasPermission(Role("pending"), PermissionLeaveViewOwn))
}

func TestActorFromContextRequiresID(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{Role: RoleManager})
	_, ok := ActorFromContext(ctx)
	assert.False(t, ok)
}
