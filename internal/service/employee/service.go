package employee

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// defaultMonthlyBreak applies when a monthly employee is created without one.
const defaultMonthlyBreak = 1.0

type EmployeeServiceImpl struct {
	employeeRepo employee.EmployeeRepository
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository) employee.EmployeeService {
	return &EmployeeServiceImpl{
		employeeRepo: employeeRepo,
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if actor.EmployeeID != id && !user.HasPermission(actor.Role, user.PermissionEmployeeViewAll) {
		return employee.EmployeeResponse{}, user.ErrInsufficientPermissions
	}

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee.ToResponse(emp), nil
}

// CreateEmployee implements employee.EmployeeService. Creating anyone but a
// plain employee needs the role-change permission.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	actor, err := user.RequirePermission(ctx, user.PermissionEmployeeManage)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	role := user.Role(req.Role)
	if role != user.RoleEmployee && !user.HasPermission(actor.Role, user.PermissionEmployeeRole) {
		return employee.EmployeeResponse{}, employee.ErrRoleChangeForbidden
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	// Validate already checked these parse.
	amount, _ := decimal.NewFromString(req.SalaryAmount)
	start, _ := civil.ParseTimeOfDay(req.WorkStartTime)
	end, _ := civil.ParseTimeOfDay(req.WorkEndTime)

	e := employee.Employee{
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:  hash,
		FullName:      strings.TrimSpace(req.FullName),
		Role:          role,
		SalaryType:    employee.SalaryType(req.SalaryType),
		SalaryAmount:  amount,
		WorkStartTime: start,
		WorkEndTime:   end,
		IsActive:      true,
	}
	switch {
	case req.BreakHours != nil:
		e.BreakHours = *req.BreakHours
	case e.SalaryType == employee.SalaryTypeMonthly:
		e.BreakHours = defaultMonthlyBreak
	}
	if req.OnboardDate != nil {
		d, _ := civil.ParseDate(*req.OnboardDate)
		e.OnboardDate = &d
	}

	created, err := s.employeeRepo.Create(ctx, e)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to create employee: %w", err)
	}

	slog.Info("employee created", "employee_id", created.ID, "role", created.Role, "created_by", actor.EmployeeID)
	return employee.ToResponse(created), nil
}

// UpdateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UpdateEmployee(ctx context.Context, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	actor, err := user.RequirePermission(ctx, user.PermissionEmployeeManage)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if req.ChangesRole() && !user.HasPermission(actor.Role, user.PermissionEmployeeRole) {
		return employee.EmployeeResponse{}, employee.ErrRoleChangeForbidden
	}

	current, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	// A one-sided schedule change must still leave start before end.
	if req.WorkStartTime != nil || req.WorkEndTime != nil {
		start, end := current.WorkStartTime, current.WorkEndTime
		if req.WorkStartTime != nil {
			start, _ = civil.ParseTimeOfDay(*req.WorkStartTime)
		}
		if req.WorkEndTime != nil {
			end, _ = civil.ParseTimeOfDay(*req.WorkEndTime)
		}
		if !start.Before(end) {
			return employee.EmployeeResponse{}, validator.New("work_end_time", "work_end_time must be after work_start_time")
		}
	}

	if err := s.employeeRepo.Update(ctx, id, req); err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to update employee: %w", err)
	}

	updated, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee.ToResponse(updated), nil
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	if _, err := user.RequirePermission(ctx, user.PermissionEmployeeViewAll); err != nil {
		return employee.ListEmployeeResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return employee.ListEmployeeResponse{}, err
	}

	employees, total, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	resp := employee.ListEmployeeResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: (total + int64(filter.Limit) - 1) / int64(filter.Limit),
		Employees:  make([]employee.EmployeeResponse, 0, len(employees)),
	}
	for _, e := range employees {
		resp.Employees = append(resp.Employees, employee.ToResponse(e))
	}
	return resp, nil
}

// DeactivateEmployee implements employee.EmployeeService. History is kept;
// the account can no longer log in, clock in or apply for leave.
func (s *EmployeeServiceImpl) DeactivateEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	actor, err := user.RequirePermission(ctx, user.PermissionEmployeeManage)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if actor.EmployeeID == id {
		return employee.EmployeeResponse{}, employee.ErrCannotDeactivateSelf
	}

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if !emp.IsActive {
		return employee.EmployeeResponse{}, employee.ErrEmployeeAlreadyInactive
	}

	if err := s.employeeRepo.Deactivate(ctx, id); err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to deactivate employee: %w", err)
	}

	emp.IsActive = false
	emp.UpdatedAt = time.Now()
	slog.Info("employee deactivated", "employee_id", id, "deactivated_by", actor.EmployeeID)
	return employee.ToResponse(emp), nil
}
