package models

import (
	"strings"
	"time"

	"avd/internal/validation"
	"avd/pkg/domain"
	dErrors "avd/pkg/domain-errors"
)

// EmployeeRequest is the wire form of an employee write. Dates are
// YYYY-MM-DD strings.
type EmployeeRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	TaxID     string `json:"tax_id"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
	HireDate  string `json:"hire_date"`
	ManagerID int64  `json:"manager_id"`
}

// Validate checks the wire format only. Business rules run in the service.
func (r *EmployeeRequest) Validate() error {
	var problems []string
	problems = checkDate(problems, "birth_date", r.BirthDate)
	problems = checkDate(problems, "hire_date", r.HireDate)
	if r.ManagerID < 0 {
		problems = append(problems, "manager_id must be positive")
	}
	if len(problems) > 0 {
		return dErrors.Validation("validation failed", problems)
	}
	return nil
}

// Input converts a validated request.
func (r *EmployeeRequest) Input() EmployeeInput {
	in := EmployeeInput{
		Name:      strings.TrimSpace(r.Name),
		Email:     strings.TrimSpace(strings.ToLower(r.Email)),
		TaxID:     strings.TrimSpace(r.TaxID),
		Phone:     strings.TrimSpace(r.Phone),
		BirthDate: parseDate(r.BirthDate),
		HireDate:  parseDate(r.HireDate),
	}
	if r.ManagerID > 0 {
		id := domain.EmployeeID(r.ManagerID)
		in.ManagerID = &id
	}
	return in
}

type CycleRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r *CycleRequest) Validate() error {
	var problems []string
	problems = checkDate(problems, "start_date", r.StartDate)
	problems = checkDate(problems, "end_date", r.EndDate)
	if len(problems) > 0 {
		return dErrors.Validation("validation failed", problems)
	}
	return nil
}

func (r *CycleRequest) Input() CycleInput {
	return CycleInput{
		Name:      strings.TrimSpace(r.Name),
		StartDate: parseDate(r.StartDate),
		EndDate:   parseDate(r.EndDate),
	}
}

type EvaluationRequest struct {
	EmployeeID int64  `json:"employee_id"`
	CycleID    int64  `json:"cycle_id"`
	Comments   string `json:"comments"`
}

func (r *EvaluationRequest) Validate() error {
	var problems []string
	if r.EmployeeID <= 0 {
		problems = append(problems, "employee_id is required")
	}
	if r.CycleID <= 0 {
		problems = append(problems, "cycle_id is required")
	}
	if len(r.Comments) > 10_000 {
		problems = append(problems, "comments must be 10000 characters or less")
	}
	if len(problems) > 0 {
		return dErrors.Validation("validation failed", problems)
	}
	return nil
}

func (r *EvaluationRequest) Input() EvaluationInput {
	return EvaluationInput{
		EmployeeID: domain.EmployeeID(r.EmployeeID),
		CycleID:    domain.CycleID(r.CycleID),
		Comments:   strings.TrimSpace(r.Comments),
	}
}

type EvaluationCommentsRequest struct {
	Comments string `json:"comments"`
}

func (r *EvaluationCommentsRequest) Validate() error {
	if len(r.Comments) > 10_000 {
		return dErrors.Validation("validation failed", []string{"comments must be 10000 characters or less"})
	}
	return nil
}

// checkDate accepts an empty value; required-ness is a business rule.
func checkDate(problems []string, field, value string) []string {
	if strings.TrimSpace(value) == "" {
		return problems
	}
	if _, err := validation.ParseDate(value); err != nil {
		return append(problems, field+" must be a date (YYYY-MM-DD)")
	}
	return problems
}

func parseDate(value string) (t time.Time) {
	t, _ = validation.ParseDate(value)
	return t
}
