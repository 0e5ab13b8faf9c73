package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	ApplyLeave(w http.ResponseWriter, r *http.Request)
	GetMyRequests(w http.ResponseWriter, r *http.Request)
	ListRequests(w http.ResponseWriter, r *http.Request)
	ApproveRequest(w http.ResponseWriter, r *http.Request)
	RejectRequest(w http.ResponseWriter, r *http.Request)
	CancelRequest(w http.ResponseWriter, r *http.Request)

	RequestCancellation(w http.ResponseWriter, r *http.Request)
	ListCancellations(w http.ResponseWriter, r *http.Request)
	ApproveCancellation(w http.ResponseWriter, r *http.Request)
	RejectCancellation(w http.ResponseWriter, r *http.Request)

	GetMyBalance(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{leaveService: leaveService}
}

// ApplyLeave implements LeaveHandler.
func (l *LeaveHandlerImpl) ApplyLeave(w http.ResponseWriter, r *http.Request) {
	var req leave.ApplyLeaveRequest

	// 1. Decode JSON
	if err := decodeJSON(r, &req); err != nil {
		slog.Error("ApplyLeave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	// 2. Validation and balance checks happen in the service
	resp, err := l.leaveService.ApplyLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted successfully", resp)
}

// GetMyRequests implements LeaveHandler.
func (l *LeaveHandlerImpl) GetMyRequests(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseLeaveFilter(w, r)
	if !ok {
		return
	}

	resp, err := l.leaveService.GetMyLeaveRequests(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	writeLeaveList(w, resp)
}

// ListRequests implements LeaveHandler.
func (l *LeaveHandlerImpl) ListRequests(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseLeaveFilter(w, r)
	if !ok {
		return
	}
	filter.EmployeeID = queryString(r, "employee_id")

	resp, err := l.leaveService.ListLeaveRequests(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	writeLeaveList(w, resp)
}

// ApproveRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}

	resp, err := l.leaveService.ApproveLeaveRequest(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request approved", resp)
}

// RejectRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) RejectRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}

	resp, err := l.leaveService.RejectLeaveRequest(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request rejected", resp)
}

// CancelRequest implements LeaveHandler. Only pending requests can be
// withdrawn this way.
func (l *LeaveHandlerImpl) CancelRequest(w http.ResponseWriter, r *http.Request) {
	resp, err := l.leaveService.CancelLeaveRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request cancelled", resp)
}

// RequestCancellation implements LeaveHandler.
func (l *LeaveHandlerImpl) RequestCancellation(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateCancellationRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Error("RequestCancellation decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	resp, err := l.leaveService.RequestCancellation(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Cancellation request submitted", resp)
}

// ListCancellations implements LeaveHandler.
func (l *LeaveHandlerImpl) ListCancellations(w http.ResponseWriter, r *http.Request) {
	resp, err := l.leaveService.ListCancellationRequests(r.Context(), queryString(r, "status"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// ApproveCancellation implements LeaveHandler.
func (l *LeaveHandlerImpl) ApproveCancellation(w http.ResponseWriter, r *http.Request) {
	resp, err := l.leaveService.ApproveCancellation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Cancellation approved", resp)
}

// RejectCancellation implements LeaveHandler.
func (l *LeaveHandlerImpl) RejectCancellation(w http.ResponseWriter, r *http.Request) {
	resp, err := l.leaveService.RejectCancellation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Cancellation rejected", resp)
}

// GetMyBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) GetMyBalance(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		response.BadRequest(w, "Invalid year parameter", nil)
		return
	}

	resp, err := l.leaveService.GetMyBalance(r.Context(), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// GetBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	year, err := queryInt(r, "year")
	if err != nil {
		response.BadRequest(w, "Invalid year parameter", nil)
		return
	}

	resp, err := l.leaveService.GetBalance(r.Context(), employeeID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

func parseLeaveFilter(w http.ResponseWriter, r *http.Request) (leave.LeaveRequestFilter, bool) {
	filter := leave.LeaveRequestFilter{
		LeaveType: queryString(r, "leave_type"),
		Status:    queryString(r, "status"),
	}

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			response.BadRequest(w, "Invalid year parameter", nil)
			return filter, false
		}
		filter.Year = &year
	}

	var err error
	if filter.Page, err = queryInt(r, "page"); err != nil {
		response.BadRequest(w, "Invalid page parameter", nil)
		return filter, false
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		response.BadRequest(w, "Invalid limit parameter", nil)
		return filter, false
	}

	return filter, true
}

// decodeReview accepts an empty body.
func decodeReview(w http.ResponseWriter, r *http.Request) (leave.ReviewRequest, bool) {
	var req leave.ReviewRequest
	if r.ContentLength == 0 {
		return req, true
	}
	if err := decodeJSON(r, &req); err != nil {
		slog.Error("ReviewRequest decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return req, false
	}
	return req, true
}

func writeLeaveList(w http.ResponseWriter, resp leave.ListLeaveRequestResponse) {
	response.SuccessWithMeta(w, resp.Requests, &response.Meta{
		Page:       resp.Page,
		Limit:      resp.Limit,
		TotalItems: resp.TotalCount,
		TotalPages: resp.TotalPages,
	})
}
