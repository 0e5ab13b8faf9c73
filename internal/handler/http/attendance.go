package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	GetEditLogs(w http.ResponseWriter, r *http.Request)
}

type AttendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &AttendanceHandlerImpl{attendanceService: attendanceService}
}

// ClockIn implements AttendanceHandler.
func (h *AttendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	resp, err := h.attendanceService.ClockIn(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clocked in successfully", resp)
}

// ClockOut implements AttendanceHandler. The body is optional.
func (h *AttendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.ClockOutRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			slog.Error("ClockOut decode error", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}

	resp, err := h.attendanceService.ClockOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clocked out successfully", resp)
}

// GetMyAttendance implements AttendanceHandler.
func (h *AttendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	resp, err := h.attendanceService.GetMyAttendance(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// List implements AttendanceHandler. A month parameter expands to its
// first and last day.
func (h *AttendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := attendance.AttendanceFilter{
		EmployeeID: queryString(r, "employee_id"),
		StartDate:  queryString(r, "start_date"),
		EndDate:    queryString(r, "end_date"),
		Status:     queryString(r, "status"),
		SortOrder:  r.URL.Query().Get("sort_order"),
	}

	if month := r.URL.Query().Get("month"); month != "" {
		ym, err := civil.ParseYearMonth(month)
		if err != nil {
			response.HandleError(w, validator.New("month", "month must be in YYYY-MM format"))
			return
		}
		start, end := ym.FirstDay().Format(civil.DateLayout), ym.LastDay().Format(civil.DateLayout)
		filter.StartDate, filter.EndDate = &start, &end
	}

	var err error
	if filter.Page, err = queryInt(r, "page"); err != nil {
		response.BadRequest(w, "Invalid page parameter", nil)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		response.BadRequest(w, "Invalid limit parameter", nil)
		return
	}

	resp, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, resp.Attendances, &response.Meta{
		Page:       resp.Page,
		Limit:      resp.Limit,
		TotalItems: resp.TotalCount,
		TotalPages: resp.TotalPages,
	})
}

// Update implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Attendance ID is required", nil)
		return
	}

	var req attendance.UpdateAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Error("UpdateAttendance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	resp, err := h.attendanceService.UpdateAttendance(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance updated successfully", resp)
}

// GetEditLogs implements AttendanceHandler.
func (h *AttendanceHandlerImpl) GetEditLogs(w http.ResponseWriter, r *http.Request) {
	resp, err := h.attendanceService.GetEditLogs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}
