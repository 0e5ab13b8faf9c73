package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SalaryHandler interface {
	GetMySalary(w http.ResponseWriter, r *http.Request)
	ListSalaries(w http.ResponseWriter, r *http.Request)
	GetSalary(w http.ResponseWriter, r *http.Request)
	Settle(w http.ResponseWriter, r *http.Request)
	Resettle(w http.ResponseWriter, r *http.Request)
	UpdateBonus(w http.ResponseWriter, r *http.Request)
}

type SalaryHandlerImpl struct {
	salaryService payroll.SalaryService
}

func NewSalaryHandler(salaryService payroll.SalaryService) SalaryHandler {
	return &SalaryHandlerImpl{salaryService: salaryService}
}

// GetMySalary implements SalaryHandler.
func (h *SalaryHandlerImpl) GetMySalary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.salaryService.GetMySalary(r.Context(), chi.URLParam(r, "yearMonth"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// ListSalaries implements SalaryHandler.
func (h *SalaryHandlerImpl) ListSalaries(w http.ResponseWriter, r *http.Request) {
	resp, err := h.salaryService.ListSalaries(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// GetSalary implements SalaryHandler.
func (h *SalaryHandlerImpl) GetSalary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.salaryService.GetSalary(r.Context(), chi.URLParam(r, "employeeId"), chi.URLParam(r, "yearMonth"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// Settle implements SalaryHandler.
func (h *SalaryHandlerImpl) Settle(w http.ResponseWriter, r *http.Request) {
	resp, err := h.salaryService.Settle(r.Context(), chi.URLParam(r, "employeeId"), chi.URLParam(r, "yearMonth"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary settled", resp)
}

// Resettle implements SalaryHandler.
func (h *SalaryHandlerImpl) Resettle(w http.ResponseWriter, r *http.Request) {
	resp, err := h.salaryService.Resettle(r.Context(), chi.URLParam(r, "employeeId"), chi.URLParam(r, "yearMonth"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary resettled", resp)
}

// UpdateBonus implements SalaryHandler.
func (h *SalaryHandlerImpl) UpdateBonus(w http.ResponseWriter, r *http.Request) {
	var req payroll.UpdateBonusRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Error("UpdateBonus decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	resp, err := h.salaryService.UpdateBonus(r.Context(), chi.URLParam(r, "employeeId"), chi.URLParam(r, "yearMonth"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bonus updated", resp)
}
