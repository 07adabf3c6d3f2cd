package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"

	"avd/internal/personnel/models"
	"avd/pkg/domain"
)

// Store persists employees, cycles and evaluations. Implementations return
// sentinel.ErrNotFound for missing rows and sentinel.ErrConflict when a
// uniqueness or reference constraint rejects the write.
type Store interface {
	CreateEmployee(ctx context.Context, e *models.Employee) error
	GetEmployee(ctx context.Context, id domain.EmployeeID) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, e *models.Employee) error
	DeleteEmployee(ctx context.Context, id domain.EmployeeID) error

	CreateCycle(ctx context.Context, c *models.Cycle) error
	GetCycle(ctx context.Context, id domain.CycleID) (*models.Cycle, error)
	UpdateCycle(ctx context.Context, c *models.Cycle) error
	DeleteCycle(ctx context.Context, id domain.CycleID) error

	CreateEvaluation(ctx context.Context, ev *models.Evaluation) error
	GetEvaluation(ctx context.Context, id domain.EvaluationID) (*models.Evaluation, error)
	UpdateEvaluation(ctx context.Context, ev *models.Evaluation) error
}
