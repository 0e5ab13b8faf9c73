package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/annualleave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
)

type LeaveServiceImpl struct {
	tx database.Transactor
	leave.LeaveRequestRepository
	leave.CancellationRepository
	leave.BalanceRepository
	employee.EmployeeRepository
	notifier notification.Notifier
	clock    civil.Clock
}

func NewLeaveService(
	tx database.Transactor,
	leaveRequestRepository leave.LeaveRequestRepository,
	cancellationRepository leave.CancellationRepository,
	balanceRepository leave.BalanceRepository,
	employeeRepository employee.EmployeeRepository,
	notifier notification.Notifier,
	clock civil.Clock,
) leave.LeaveService {
	return &LeaveServiceImpl{
		tx:                     tx,
		LeaveRequestRepository: leaveRequestRepository,
		CancellationRepository: cancellationRepository,
		BalanceRepository:      balanceRepository,
		EmployeeRepository:     employeeRepository,
		notifier:               notifier,
		clock:                  clock,
	}
}

// ApplyLeave implements leave.LeaveService. Annual leave is reserved
// against the balance of the start date's year while that balance row is
// locked, so concurrent requests of one employee are checked one at a time.
func (s *LeaveServiceImpl) ApplyLeave(ctx context.Context, req leave.ApplyLeaveRequest) (leave.LeaveRequestResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if !emp.IsActive {
		return leave.LeaveRequestResponse{}, employee.ErrEmployeeInactive
	}

	leaveType := leave.LeaveType(req.LeaveType)
	var created leave.LeaveRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var reserved float64
		year := req.Start.Year()

		if leaveType == leave.LeaveTypeAnnual {
			if err := s.ensureBalance(ctx, emp, year); err != nil {
				return err
			}
			bal, err := s.BalanceRepository.GetForUpdate(ctx, emp.ID, year)
			if err != nil {
				return fmt.Errorf("failed to lock leave balance: %w", err)
			}
			reserved, err = s.LeaveRequestRepository.SumReservedDays(ctx, emp.ID, leave.LeaveTypeAnnual, year)
			if err != nil {
				return fmt.Errorf("failed to sum reserved days: %w", err)
			}
			if reserved+req.Days > bal.TotalDays {
				return &leave.InsufficientBalanceError{
					Year:      year,
					Total:     bal.TotalDays,
					Reserved:  reserved,
					Requested: req.Days,
				}
			}
		}

		created, err = s.LeaveRequestRepository.Create(ctx, leave.LeaveRequest{
			EmployeeID: emp.ID,
			LeaveType:  leaveType,
			StartDate:  req.Start,
			EndDate:    req.End,
			Days:       req.Days,
			Reason:     req.Reason,
			Status:     leave.LeaveRequestStatusPending,
		})
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}

		if leaveType == leave.LeaveTypeAnnual {
			if err := s.BalanceRepository.UpdateUsedDays(ctx, emp.ID, year, reserved+req.Days); err != nil {
				return fmt.Errorf("failed to update leave balance: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	s.notifyManagers(ctx, emp, notification.TypeLeaveRequest, "New leave request",
		fmt.Sprintf("%s requested %.1f day(s) of %s leave from %s to %s", emp.FullName, created.Days, created.LeaveType,
			created.StartDate.Format(civil.DateLayout), created.EndDate.Format(civil.DateLayout)),
		"/leaves/"+created.ID, map[string]interface{}{"leave_request_id": created.ID})

	name := emp.FullName
	created.EmployeeName = &name
	return leave.ToLeaveRequestResponse(created), nil
}

// ensureBalance creates the year's balance row from the entitlement in
// force, unless one already exists.
func (s *LeaveServiceImpl) ensureBalance(ctx context.Context, emp employee.Employee, year int) error {
	if emp.OnboardDate == nil {
		return leave.ErrBalanceUnavailable
	}

	ref := civil.Day(s.clock.Today())
	if endOfYear := civil.Date(year, time.December, 31); endOfYear.Before(ref) {
		ref = endOfYear
	}

	if err := s.BalanceRepository.CreateIfAbsent(ctx, leave.Balance{
		EmployeeID: emp.ID,
		Year:       year,
		TotalDays:  annualleave.CurrentEntitlement(*emp.OnboardDate, ref),
	}); err != nil {
		return fmt.Errorf("failed to initialize leave balance: %w", err)
	}
	return nil
}

// refreshUsage recomputes the display aggregates after a status change:
// the balance's reserved days and the employee's used days since the last
// grant.
func (s *LeaveServiceImpl) refreshUsage(ctx context.Context, lr leave.LeaveRequest) error {
	if lr.LeaveType != leave.LeaveTypeAnnual {
		return nil
	}

	year := lr.BalanceYear()
	reserved, err := s.LeaveRequestRepository.SumReservedDays(ctx, lr.EmployeeID, leave.LeaveTypeAnnual, year)
	if err != nil {
		return fmt.Errorf("failed to sum reserved days: %w", err)
	}
	if err := s.BalanceRepository.UpdateUsedDays(ctx, lr.EmployeeID, year, reserved); err != nil {
		return fmt.Errorf("failed to update leave balance: %w", err)
	}

	emp, err := s.EmployeeRepository.GetByIDForUpdate(ctx, lr.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to lock employee: %w", err)
	}
	var since time.Time
	switch {
	case emp.LastResetDate != nil:
		since = *emp.LastResetDate
	case emp.OnboardDate != nil:
		since = *emp.OnboardDate
	}
	used, err := s.LeaveRequestRepository.SumApprovedDaysSince(ctx, emp.ID, leave.LeaveTypeAnnual, since)
	if err != nil {
		return fmt.Errorf("failed to sum approved days: %w", err)
	}
	if err := s.EmployeeRepository.SetAnnualLeaveUsed(ctx, emp.ID, used); err != nil {
		return fmt.Errorf("failed to update annual leave used: %w", err)
	}
	return nil
}

func (s *LeaveServiceImpl) notifyManagers(ctx context.Context, from employee.Employee, typ notification.NotificationType, title, message, link string, data map[string]interface{}) {
	managers, err := s.EmployeeRepository.ListActiveManagers(ctx)
	if err != nil {
		slog.Error("failed to list managers for notification", "type", typ, "error", err)
		return
	}
	sender := from.ID
	for _, m := range managers {
		if m.ID == from.ID {
			continue
		}
		s.notifier.Notify(ctx, notification.NotifyRequest{
			RecipientID: m.ID,
			SenderID:    &sender,
			Type:        typ,
			Title:       title,
			Message:     message,
			Link:        link,
			Data:        data,
		})
	}
}

func totalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

func (s *LeaveServiceImpl) list(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	requests, total, err := s.LeaveRequestRepository.List(ctx, filter)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	resp := leave.ListLeaveRequestResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
		Requests:   make([]leave.LeaveRequestResponse, 0, len(requests)),
	}
	for _, r := range requests {
		resp.Requests = append(resp.Requests, leave.ToLeaveRequestResponse(r))
	}
	return resp, nil
}

// GetMyLeaveRequests implements leave.LeaveService.
func (s *LeaveServiceImpl) GetMyLeaveRequests(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}
	filter.EmployeeID = &actor.EmployeeID
	return s.list(ctx, filter)
}

// ListLeaveRequests implements leave.LeaveService.
func (s *LeaveServiceImpl) ListLeaveRequests(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	if _, err := user.RequireManager(ctx); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}
	return s.list(ctx, filter)
}

// ApproveLeaveRequest implements leave.LeaveService. The balance total is
// not touched; the request simply keeps counting as reserved.
func (s *LeaveServiceImpl) ApproveLeaveRequest(ctx context.Context, id string, req leave.ReviewRequest) (leave.LeaveRequestResponse, error) {
	return s.review(ctx, id, req, leave.LeaveRequestStatusApproved)
}

// RejectLeaveRequest implements leave.LeaveService.
func (s *LeaveServiceImpl) RejectLeaveRequest(ctx context.Context, id string, req leave.ReviewRequest) (leave.LeaveRequestResponse, error) {
	return s.review(ctx, id, req, leave.LeaveRequestStatusRejected)
}

func (s *LeaveServiceImpl) review(ctx context.Context, id string, req leave.ReviewRequest, to leave.LeaveRequestStatus) (leave.LeaveRequestResponse, error) {
	actor, err := user.RequireManager(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	var reviewed leave.LeaveRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		lr, err := s.LeaveRequestRepository.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get leave request: %w", err)
		}
		if lr.EmployeeID == actor.EmployeeID {
			return leave.ErrCannotReviewOwnRequest
		}
		if lr.Status != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveRequestAlreadyProcessed
		}

		if err := s.LeaveRequestRepository.UpdateStatus(ctx, id, leave.LeaveRequestStatusPending, to, &actor.EmployeeID, req.Note); err != nil {
			return err
		}
		if err := s.refreshUsage(ctx, lr); err != nil {
			return err
		}

		reviewed, err = s.LeaveRequestRepository.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get leave request: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	typ, verb := notification.TypeLeaveApproved, "approved"
	if to == leave.LeaveRequestStatusRejected {
		typ, verb = notification.TypeLeaveRejected, "rejected"
	}
	s.notifier.Notify(ctx, notification.NotifyRequest{
		RecipientID: reviewed.EmployeeID,
		SenderID:    &actor.EmployeeID,
		Type:        typ,
		Title:       "Leave request " + verb,
		Message: fmt.Sprintf("Your %s leave from %s to %s was %s", reviewed.LeaveType,
			reviewed.StartDate.Format(civil.DateLayout), reviewed.EndDate.Format(civil.DateLayout), verb),
		Link: "/leaves/" + reviewed.ID,
		Data: map[string]interface{}{"leave_request_id": reviewed.ID, "status": string(reviewed.Status)},
	})

	return leave.ToLeaveRequestResponse(reviewed), nil
}

// CancelLeaveRequest implements leave.LeaveService. Only the owner may
// cancel, and only while the request is pending.
func (s *LeaveServiceImpl) CancelLeaveRequest(ctx context.Context, id string) (leave.LeaveRequestResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	var cancelled leave.LeaveRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		lr, err := s.LeaveRequestRepository.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get leave request: %w", err)
		}
		if lr.EmployeeID != actor.EmployeeID {
			return leave.ErrNotLeaveOwner
		}
		if lr.Status != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveRequestNotPending
		}

		if err := s.LeaveRequestRepository.UpdateStatus(ctx, id, leave.LeaveRequestStatusPending, leave.LeaveRequestStatusCancelled, nil, nil); err != nil {
			return err
		}
		if err := s.refreshUsage(ctx, lr); err != nil {
			return err
		}

		cancelled, err = s.LeaveRequestRepository.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get leave request: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return leave.ToLeaveRequestResponse(cancelled), nil
}

// RequestCancellation implements leave.LeaveService.
func (s *LeaveServiceImpl) RequestCancellation(ctx context.Context, leaveRequestID string, req leave.CreateCancellationRequest) (leave.CancellationResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return leave.CancellationResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return leave.CancellationResponse{}, err
	}

	lr, err := s.LeaveRequestRepository.GetByID(ctx, leaveRequestID)
	if err != nil {
		return leave.CancellationResponse{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	if lr.EmployeeID != actor.EmployeeID {
		return leave.CancellationResponse{}, leave.ErrNotLeaveOwner
	}
	if lr.Status != leave.LeaveRequestStatusApproved {
		return leave.CancellationResponse{}, leave.ErrLeaveRequestNotApproved
	}

	pending, err := s.CancellationRepository.HasPending(ctx, leaveRequestID)
	if err != nil {
		return leave.CancellationResponse{}, fmt.Errorf("failed to check pending cancellation: %w", err)
	}
	if pending {
		return leave.CancellationResponse{}, leave.ErrCancellationAlreadyPending
	}

	created, err := s.CancellationRepository.Create(ctx, leave.CancellationRequest{
		LeaveRequestID: lr.ID,
		EmployeeID:     actor.EmployeeID,
		Reason:         req.Reason,
		Status:         leave.CancellationStatusPending,
	})
	if err != nil {
		return leave.CancellationResponse{}, fmt.Errorf("failed to create cancellation request: %w", err)
	}
	created.Leave = &lr

	emp, err := s.EmployeeRepository.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		slog.Warn("failed to load requester for notification", "employee_id", actor.EmployeeID, "error", err)
		emp = employee.Employee{ID: actor.EmployeeID, FullName: "An employee"}
	}
	s.notifyManagers(ctx, emp, notification.TypeLeaveCancellationRequested, "Leave cancellation requested",
		fmt.Sprintf("%s asked to cancel approved leave from %s to %s", emp.FullName,
			lr.StartDate.Format(civil.DateLayout), lr.EndDate.Format(civil.DateLayout)),
		"/leave-cancellations/"+created.ID, map[string]interface{}{"cancellation_request_id": created.ID, "leave_request_id": lr.ID})

	return leave.ToCancellationResponse(created), nil
}

// ListCancellationRequests implements leave.LeaveService.
func (s *LeaveServiceImpl) ListCancellationRequests(ctx context.Context, status *string) ([]leave.CancellationResponse, error) {
	if _, err := user.RequireManager(ctx); err != nil {
		return nil, err
	}

	var filter *leave.CancellationStatus
	if status != nil && *status != "" {
		valid := []string{
			string(leave.CancellationStatusPending),
			string(leave.CancellationStatusApproved),
			string(leave.CancellationStatusRejected),
		}
		if !validator.IsInSlice(*status, valid) {
			return nil, validator.New("status", "status must be one of: pending, approved, rejected")
		}
		cs := leave.CancellationStatus(*status)
		filter = &cs
	}

	items, err := s.CancellationRepository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list cancellation requests: %w", err)
	}

	resp := make([]leave.CancellationResponse, 0, len(items))
	for _, c := range items {
		resp = append(resp, leave.ToCancellationResponse(c))
	}
	return resp, nil
}

// ApproveCancellation implements leave.LeaveService. The approved leave
// becomes cancelled and stops counting against the balance.
func (s *LeaveServiceImpl) ApproveCancellation(ctx context.Context, id string) (leave.CancellationResponse, error) {
	return s.reviewCancellation(ctx, id, leave.CancellationStatusApproved)
}

// RejectCancellation implements leave.LeaveService.
func (s *LeaveServiceImpl) RejectCancellation(ctx context.Context, id string) (leave.CancellationResponse, error) {
	return s.reviewCancellation(ctx, id, leave.CancellationStatusRejected)
}

func (s *LeaveServiceImpl) reviewCancellation(ctx context.Context, id string, to leave.CancellationStatus) (leave.CancellationResponse, error) {
	actor, err := user.RequireManager(ctx)
	if err != nil {
		return leave.CancellationResponse{}, err
	}

	var reviewed leave.CancellationRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.CancellationRepository.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get cancellation request: %w", err)
		}
		if c.EmployeeID == actor.EmployeeID {
			return leave.ErrCannotReviewOwnRequest
		}
		if c.Status != leave.CancellationStatusPending {
			return leave.ErrCancellationAlreadyProcessed
		}

		if err := s.CancellationRepository.UpdateStatus(ctx, id, leave.CancellationStatusPending, to, actor.EmployeeID); err != nil {
			return err
		}

		if to == leave.CancellationStatusApproved {
			if err := s.LeaveRequestRepository.UpdateStatus(ctx, c.LeaveRequestID, leave.LeaveRequestStatusApproved, leave.LeaveRequestStatusCancelled, &actor.EmployeeID, nil); err != nil {
				return err
			}
		}

		lr, err := s.LeaveRequestRepository.GetByID(ctx, c.LeaveRequestID)
		if err != nil {
			return fmt.Errorf("failed to get leave request: %w", err)
		}
		if to == leave.CancellationStatusApproved {
			if err := s.refreshUsage(ctx, lr); err != nil {
				return err
			}
		}

		reviewed, err = s.CancellationRepository.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get cancellation request: %w", err)
		}
		reviewed.Leave = &lr
		return nil
	})
	if err != nil {
		return leave.CancellationResponse{}, err
	}

	typ, verb := notification.TypeLeaveCancellationApproved, "approved"
	if to == leave.CancellationStatusRejected {
		typ, verb = notification.TypeLeaveCancellationRejected, "rejected"
	}
	s.notifier.Notify(ctx, notification.NotifyRequest{
		RecipientID: reviewed.EmployeeID,
		SenderID:    &actor.EmployeeID,
		Type:        typ,
		Title:       "Leave cancellation " + verb,
		Message:     "Your request to cancel approved leave was " + verb,
		Link:        "/leaves/" + reviewed.LeaveRequestID,
		Data:        map[string]interface{}{"cancellation_request_id": reviewed.ID, "leave_request_id": reviewed.LeaveRequestID},
	})

	return leave.ToCancellationResponse(reviewed), nil
}

// GetMyBalance implements leave.LeaveService.
func (s *LeaveServiceImpl) GetMyBalance(ctx context.Context, year int) (leave.BalanceResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return leave.BalanceResponse{}, err
	}
	return s.GetBalance(ctx, actor.EmployeeID, year)
}

// GetBalance implements leave.LeaveService. A zero year means the current
// civil year. Missing balances are initialized on first read.
func (s *LeaveServiceImpl) GetBalance(ctx context.Context, employeeID string, year int) (leave.BalanceResponse, error) {
	actor, err := user.RequireAuthenticated(ctx)
	if err != nil {
		return leave.BalanceResponse{}, err
	}
	if !actor.IsManager() && actor.EmployeeID != employeeID {
		return leave.BalanceResponse{}, user.ErrInsufficientPermissions
	}
	if year == 0 {
		year = s.clock.Today().Year()
	}
	if year < 1900 || year > 9999 {
		return leave.BalanceResponse{}, validator.New("year", "year is out of range")
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return leave.BalanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if err := s.ensureBalance(ctx, emp, year); err != nil {
		return leave.BalanceResponse{}, err
	}

	bal, err := s.BalanceRepository.Get(ctx, employeeID, year)
	if err != nil {
		return leave.BalanceResponse{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	reserved, err := s.LeaveRequestRepository.SumReservedDays(ctx, employeeID, leave.LeaveTypeAnnual, year)
	if err != nil {
		return leave.BalanceResponse{}, fmt.Errorf("failed to sum reserved days: %w", err)
	}

	remaining := bal.TotalDays - reserved
	if remaining < 0 {
		remaining = 0
	}
	return leave.BalanceResponse{
		EmployeeID: employeeID,
		Year:       year,
		TotalDays:  bal.TotalDays,
		Reserved:   reserved,
		Remaining:  remaining,
	}, nil
}
