package user

type Permission string

const (
	// Self Management
	PermissionViewOwnProfile Permission = "profile.view_own"

	// Leave Management
	PermissionLeaveViewOwn Permission = "leave.view_own"
	PermissionLeaveCreate  Permission = "leave.create"
	PermissionLeaveViewAll Permission = "leave.view_all"
	PermissionLeaveApprove Permission = "leave.approve"

	// Attendance Management
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceCreate  Permission = "attendance.create"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceEdit    Permission = "attendance.edit"

	// Salary
	PermissionSalaryViewOwn Permission = "salary.view_own"
	PermissionSalaryViewAll Permission = "salary.view_all"
	PermissionSalarySettle  Permission = "salary.settle"

	// Annual leave accrual
	PermissionAccrualRun Permission = "annual_leave.run"

	// Employee Management
	PermissionEmployeeViewAll Permission = "employee.view_all"
	PermissionEmployeeManage  Permission = "employee.manage"
	PermissionEmployeeRole    Permission = "employee.change_role"
)

var employeePermissions = []Permission{
	PermissionViewOwnProfile,
	PermissionLeaveViewOwn,
	PermissionLeaveCreate,
	PermissionAttendanceViewOwn,
	PermissionAttendanceCreate,
	PermissionSalaryViewOwn,
}

var managerPermissions = append(append([]Permission{}, employeePermissions...),
	PermissionLeaveViewAll,
	PermissionLeaveApprove,
	PermissionAttendanceViewAll,
	PermissionAttendanceEdit,
	PermissionSalaryViewAll,
	PermissionSalarySettle,
	PermissionAccrualRun,
	PermissionEmployeeViewAll,
	PermissionEmployeeManage,
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: append(append([]Permission{}, managerPermissions...), PermissionEmployeeRole),
	RoleManager:    managerPermissions,
	RoleEmployee:   employeePermissions,
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
