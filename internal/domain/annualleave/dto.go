package annualleave

import "time"

type EmployeeResultResponse struct {
	EmployeeID  string  `json:"employee_id"`
	FullName    string  `json:"full_name"`
	Outcome     string  `json:"outcome"`
	Days        float64 `json:"days,omitempty"`
	TenureYears float64 `json:"tenure_years,omitempty"`
	Error       string  `json:"error,omitempty"`
}

type RunResultResponse struct {
	Date       string                   `json:"date"`
	Granted    int                      `json:"granted"`
	Skipped    int                      `json:"skipped_already_run"`
	NotDue     int                      `json:"not_due"`
	Failed     int                      `json:"failed"`
	DurationMs int64                    `json:"duration_ms"`
	Results    []EmployeeResultResponse `json:"results"`
}

func ToRunResultResponse(r RunResult) RunResultResponse {
	resp := RunResultResponse{
		Date:       r.Date.Format("2006-01-02"),
		Granted:    r.Granted,
		Skipped:    r.Skipped,
		NotDue:     r.NotDue,
		Failed:     r.Failed,
		DurationMs: r.Duration.Milliseconds(),
		Results:    make([]EmployeeResultResponse, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		resp.Results = append(resp.Results, EmployeeResultResponse{
			EmployeeID:  res.EmployeeID,
			FullName:    res.FullName,
			Outcome:     string(res.Outcome),
			Days:        res.Days,
			TenureYears: res.TenureYears,
			Error:       res.Error,
		})
	}
	return resp
}

type LogResponse struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	TenureYear  float64 `json:"tenure_year"`
	Action      string  `json:"action"`
	DaysChange  float64 `json:"days_change"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

func ToLogResponse(l Log) LogResponse {
	return LogResponse{
		ID:          l.ID,
		EmployeeID:  l.EmployeeID,
		TenureYear:  l.TenureYear,
		Action:      string(l.Action),
		DaysChange:  l.DaysChange,
		Description: l.Description,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
}

type EntitlementResponse struct {
	EmployeeID         string  `json:"employee_id"`
	Date               string  `json:"date"`
	Days               float64 `json:"days"`
	TenureYears        float64 `json:"tenure_years"`
	IsGrantDate        bool    `json:"is_grant_date"`
	CurrentEntitlement float64 `json:"current_entitlement"`
}
