package fixtures

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmployeeService struct {
	employee.EmployeeService
	requests []employee.CreateEmployeeRequest
	actors   []user.Actor
	err      error
}

func (r *recordingEmployeeService) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	actor, _ := user.ActorFromContext(ctx)
	r.actors = append(r.actors, actor)
	r.requests = append(r.requests, req)
	if r.err != nil {
		return employee.EmployeeResponse{}, r.err
	}
	return employee.EmployeeResponse{ID: "emp-1", Email: req.Email}, nil
}

func TestSeedSuperAdmin(t *testing.T) {
	account := AdminAccount{Email: "admin@example.com", Password: "password123"}

	t.Run("creates account as system super admin", func(t *testing.T) {
		svc := &recordingEmployeeService{}
		created, err := SeedSuperAdmin(context.Background(), svc, account, "2024-01-02")
		require.NoError(t, err)
		assert.True(t, created)

		require.Len(t, svc.requests, 1)
		req := svc.requests[0]
		assert.Equal(t, "super_admin", req.Role)
		assert.Equal(t, "Administrator", req.FullName)
		require.NotNil(t, req.OnboardDate)
		assert.Equal(t, "2024-01-02", *req.OnboardDate)
		assert.Equal(t, SystemActorID, svc.actors[0].EmployeeID)
		assert.Equal(t, user.RoleSuperAdmin, svc.actors[0].Role)
	})

	t.Run("existing email is a no-op", func(t *testing.T) {
		svc := &recordingEmployeeService{err: employee.ErrEmailExists}
		created, err := SeedSuperAdmin(context.Background(), svc, account, "")
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("disabled without email", func(t *testing.T) {
		svc := &recordingEmployeeService{}
		created, err := SeedSuperAdmin(context.Background(), svc, AdminAccount{}, "")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Empty(t, svc.requests)
	})

	t.Run("other errors surface", func(t *testing.T) {
		svc := &recordingEmployeeService{err: errors.New("db down")}
		_, err := SeedSuperAdmin(context.Background(), svc, account, "")
		assert.ErrorContains(t, err, "failed to seed super admin")
	})
}
