package annualleave

import "time"

type Action string

const (
	ActionGrant Action = "grant"
	ActionReset Action = "reset"
)

// Log is an append-only audit entry of a grant or reset.
type Log struct {
	ID          string
	EmployeeID  string
	TenureYear  float64
	Action      Action
	DaysChange  float64
	Description string
	CreatedAt   time.Time
}

// Outcome of one employee in an accrual run.
type Outcome string

const (
	OutcomeGranted           Outcome = "granted"
	OutcomeSkippedAlreadyRun Outcome = "skipped_already_run"
	OutcomeNotDue            Outcome = "not_due"
	OutcomeFailed            Outcome = "failed"
)

type EmployeeResult struct {
	EmployeeID  string
	FullName    string
	Outcome     Outcome
	Days        float64
	TenureYears float64
	Error       string
}

type RunResult struct {
	Date     time.Time
	Results  []EmployeeResult
	Granted  int
	Skipped  int
	NotDue   int
	Failed   int
	Duration time.Duration
}

// Add records an employee result and updates the tally.
func (r *RunResult) Add(res EmployeeResult) {
	r.Results = append(r.Results, res)
	switch res.Outcome {
	case OutcomeGranted:
		r.Granted++
	case OutcomeSkippedAlreadyRun:
		r.Skipped++
	case OutcomeNotDue:
		r.NotDue++
	case OutcomeFailed:
		r.Failed++
	}
}
