package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/annualleave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var balanceErr *leave.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		ConflictWithDetails(w, "Insufficient annual leave balance", balanceErr.Details())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrUnauthenticated), errors.Is(err, jwt.ErrInvalidClaims):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrAccountInactive):
		Forbidden(w, "Account is inactive")
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound), errors.Is(err, payroll.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, employee.ErrEmployeeAlreadyInactive):
		Conflict(w, "Employee is already inactive")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is inactive")
	case errors.Is(err, employee.ErrCannotDeactivateSelf):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, employee.ErrRoleChangeForbidden):
		Forbidden(w, "Only super admins can assign roles")
	case errors.Is(err, employee.ErrOnboardDateRequired):
		BadRequest(w, err.Error(), nil)

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAlreadyClockedIn), errors.Is(err, attendance.ErrAlreadyClockedOut):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrNotClockedIn):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrInvalidBreakHours):
		ValidationError(w, map[string]string{"break_hours": err.Error()})
	case errors.Is(err, attendance.ErrClockOutBeforeIn):
		ValidationError(w, map[string]string{"clock_out": err.Error()})
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, err.Error())

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrCancellationNotFound):
		NotFound(w, "Cancellation request not found")
	case errors.Is(err, leave.ErrBalanceNotFound):
		NotFound(w, "Leave balance not found")
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed),
		errors.Is(err, leave.ErrCancellationAlreadyProcessed),
		errors.Is(err, leave.ErrCancellationAlreadyPending),
		errors.Is(err, leave.ErrLeaveRequestNotPending),
		errors.Is(err, leave.ErrLeaveRequestNotApproved):
		Conflict(w, err.Error())
	case errors.Is(err, leave.ErrInsufficientBalance):
		Conflict(w, "Insufficient annual leave balance")
	case errors.Is(err, leave.ErrNotLeaveOwner), errors.Is(err, leave.ErrCannotReviewOwnRequest):
		Forbidden(w, err.Error())
	case errors.Is(err, leave.ErrBalanceUnavailable):
		BadRequest(w, err.Error(), nil)

	// Payroll domain errors
	case errors.Is(err, payroll.ErrSalaryRecordNotFound):
		NotFound(w, "Salary record not found")
	case errors.Is(err, payroll.ErrAlreadySettled),
		errors.Is(err, payroll.ErrNotSettled),
		errors.Is(err, payroll.ErrSettledReadOnly):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrInvalidYearMonth):
		ValidationError(w, map[string]string{"year_month": err.Error()})
	case errors.Is(err, payroll.ErrNegativeBonus):
		ValidationError(w, map[string]string{"bonus": err.Error()})

	// Annual leave errors
	case errors.Is(err, annualleave.ErrAccrualAlreadyRunning):
		Conflict(w, err.Error())
	case errors.Is(err, annualleave.ErrInvalidRunDate):
		ValidationError(w, map[string]string{"date": err.Error()})

	// Notification errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, notification.ErrUnauthorized):
		Forbidden(w, err.Error())

	case errors.Is(err, database.ErrTransient):
		slog.Warn("transient store failure", "error", err)
		ServiceUnavailable(w, "Service temporarily unavailable, please retry")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
