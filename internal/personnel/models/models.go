package models

import (
	"time"

	"avd/internal/validation"
	"avd/pkg/domain"
)

type Employee struct {
	ID        domain.EmployeeID  `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	TaxID     string             `json:"tax_id,omitempty"`
	Phone     string             `json:"phone,omitempty"`
	BirthDate time.Time          `json:"birth_date"`
	HireDate  time.Time          `json:"hire_date"`
	ManagerID *domain.EmployeeID `json:"manager_id,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// EmployeeInput is the writable part of an employee.
type EmployeeInput struct {
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	TaxID     string             `json:"tax_id,omitempty"`
	Phone     string             `json:"phone,omitempty"`
	BirthDate time.Time          `json:"birth_date"`
	HireDate  time.Time          `json:"hire_date"`
	ManagerID *domain.EmployeeID `json:"manager_id,omitempty"`
}

// Candidate projects the input onto the employee validation rules.
func (in EmployeeInput) Candidate() validation.EmployeeCandidate {
	return validation.EmployeeCandidate{
		Name:      in.Name,
		Email:     in.Email,
		TaxID:     in.TaxID,
		Phone:     in.Phone,
		BirthDate: in.BirthDate,
		HireDate:  in.HireDate,
	}
}

// Apply copies the input onto e.
func (in EmployeeInput) Apply(e *Employee) {
	e.Name = in.Name
	e.Email = in.Email
	e.TaxID = in.TaxID
	e.Phone = in.Phone
	e.BirthDate = in.BirthDate
	e.HireDate = in.HireDate
	e.ManagerID = in.ManagerID
}

type CycleStatus string

const (
	CycleStatusPlanned CycleStatus = "planned"
	CycleStatusActive  CycleStatus = "active"
	CycleStatusClosed  CycleStatus = "closed"
)

type Cycle struct {
	ID        domain.CycleID `json:"id"`
	Name      string         `json:"name"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	Status    CycleStatus    `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type CycleInput struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func (in CycleInput) Candidate() validation.CycleCandidate {
	return validation.CycleCandidate{Name: in.Name, StartDate: in.StartDate, EndDate: in.EndDate}
}

type EvaluationStatus string

const (
	EvaluationStatusDraft    EvaluationStatus = "draft"
	EvaluationStatusApproved EvaluationStatus = "approved"
)

type Evaluation struct {
	ID          domain.EvaluationID `json:"id"`
	EmployeeID  domain.EmployeeID   `json:"employee_id"`
	CycleID     domain.CycleID      `json:"cycle_id"`
	EvaluatorID domain.UserID       `json:"evaluator_id"`
	Status      EvaluationStatus    `json:"status"`
	Comments    string              `json:"comments,omitempty"`
	ApprovedBy  *domain.UserID      `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time          `json:"approved_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type EvaluationInput struct {
	EmployeeID domain.EmployeeID `json:"employee_id"`
	CycleID    domain.CycleID    `json:"cycle_id"`
	Comments   string            `json:"comments,omitempty"`
}

// EvaluationUpdate changes the free-text part of a draft evaluation.
type EvaluationUpdate struct {
	ID       domain.EvaluationID `json:"id"`
	Comments string              `json:"comments"`
}

// EmployeeUpdate pairs an employee id with its new data.
type EmployeeUpdate struct {
	ID domain.EmployeeID `json:"id"`
	EmployeeInput
}

// CycleUpdate pairs a cycle id with its new data.
type CycleUpdate struct {
	ID domain.CycleID `json:"id"`
	CycleInput
}
