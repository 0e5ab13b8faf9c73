package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/annualleave"
	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AnnualLeaveHandler interface {
	RunAccrual(w http.ResponseWriter, r *http.Request)
	RunScheduledAccrual(w http.ResponseWriter, r *http.Request)
	GetLogs(w http.ResponseWriter, r *http.Request)
	Preview(w http.ResponseWriter, r *http.Request)
}

type annualLeaveHandlerImpl struct {
	annualLeaveService annualleave.AnnualLeaveService
}

func NewAnnualLeaveHandler(annualLeaveService annualleave.AnnualLeaveService) AnnualLeaveHandler {
	return &annualLeaveHandlerImpl{annualLeaveService: annualLeaveService}
}

// RunAccrual triggers the accrual job for today on behalf of a manager.
func (h *annualLeaveHandlerImpl) RunAccrual(w http.ResponseWriter, r *http.Request) {
	result, err := h.annualLeaveService.TriggerAccrual(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Annual leave accrual completed", result)
}

// RunScheduledAccrual is the entry point for the external scheduler.
func (h *annualLeaveHandlerImpl) RunScheduledAccrual(w http.ResponseWriter, r *http.Request) {
	result, err := h.annualLeaveService.TriggerScheduledAccrual(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *annualLeaveHandlerImpl) GetLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.annualLeaveService.GetLogs(r.Context(), chi.URLParam(r, "employeeId"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, logs)
}

// Preview reports the entitlement on ?date=YYYY-MM-DD, defaulting to today.
func (h *annualLeaveHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	result, err := h.annualLeaveService.Preview(r.Context(), chi.URLParam(r, "employeeId"), r.URL.Query().Get("date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
