package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
)

// SystemActorID marks records created by startup seeding rather than a person.
const SystemActorID = "system"

// AdminAccount is the first super admin created on an empty install.
type AdminAccount struct {
	Email    string
	Password string
	FullName string
}

// ==========================================
// DEFAULT SCHEDULE
// ==========================================

// The bootstrap admin is a salaried office worker; payroll figures can be
// corrected afterwards through the employee API.
const (
	defaultSalaryType    = "monthly"
	defaultSalaryAmount  = "0"
	defaultWorkStartTime = "09:00:00"
	defaultWorkEndTime   = "18:00:00"
)

func strPtr(s string) *string { return &s }

// SeedSuperAdmin creates the account unless its email is already taken.
// An empty email disables seeding.
func SeedSuperAdmin(ctx context.Context, svc employee.EmployeeService, account AdminAccount, onboardDate string) (bool, error) {
	if account.Email == "" {
		return false, nil
	}

	name := account.FullName
	if name == "" {
		name = "Administrator"
	}

	req := employee.CreateEmployeeRequest{
		Email:         account.Email,
		Password:      account.Password,
		FullName:      name,
		Role:          string(user.RoleSuperAdmin),
		SalaryType:    defaultSalaryType,
		SalaryAmount:  defaultSalaryAmount,
		WorkStartTime: defaultWorkStartTime,
		WorkEndTime:   defaultWorkEndTime,
	}
	if onboardDate != "" {
		req.OnboardDate = strPtr(onboardDate)
	}

	ctx = user.WithActor(ctx, user.Actor{EmployeeID: SystemActorID, Role: user.RoleSuperAdmin})
	created, err := svc.CreateEmployee(ctx, req)
	if errors.Is(err, employee.ErrEmailExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to seed super admin: %w", err)
	}

	slog.Info("seeded super admin", "employee_id", created.ID, "email", created.Email)
	return true, nil
}
