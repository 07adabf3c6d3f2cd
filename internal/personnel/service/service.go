// Package service implements the personnel mutations: employees, evaluation
// cycles and evaluations. Each write validates its input first, then runs its
// referential checks and the store write inside a single transaction.
// Invalid input never opens a transaction.
package service

import (
	"context"
	"errors"
	"log/slog"

	"avd/internal/integrity"
	"avd/internal/personnel/models"
	"avd/internal/txrunner"
	"avd/internal/validation"
	"avd/pkg/domain"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/audit"
	"avd/pkg/platform/sentinel"
	"avd/pkg/requestcontext"
)

type Service struct {
	store   Store
	checker integrity.Checker
	runner  txrunner.Runner
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(store Store, checker integrity.Checker, runner txrunner.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if checker == nil {
		return nil, errors.New("integrity checker is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{store: store, checker: checker, runner: runner, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// -----------------------------------------------------------------------------
// Employees
// -----------------------------------------------------------------------------

func (s *Service) CreateEmployee(ctx context.Context, in models.EmployeeInput) (*models.Employee, error) {
	if err := validation.Assert(validation.ValidateEmployeeData(in.Candidate())); err != nil {
		return nil, err
	}
	return run(ctx, s.runner, func(ctx context.Context) (*models.Employee, error) {
		if in.ManagerID != nil {
			if err := integrity.CheckAll(ctx, managerMustExist(s.checker, *in.ManagerID)); err != nil {
				return nil, err
			}
		}
		now := requestcontext.Now(ctx)
		e := &models.Employee{CreatedAt: now, UpdatedAt: now}
		in.Apply(e)
		if err := s.store.CreateEmployee(ctx, e); err != nil {
			return nil, storeError(err, "employee", "an employee with this email or tax id already exists")
		}
		s.logger.InfoContext(ctx, "employee created",
			"employee_id", e.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return e, nil
	})
}

func (s *Service) GetEmployee(ctx context.Context, id domain.EmployeeID) (*models.Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, storeError(err, "employee", "")
	}
	return e, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, upd models.EmployeeUpdate) (*models.Employee, error) {
	if err := validation.Assert(validation.ValidateEmployeeData(upd.Candidate())); err != nil {
		return nil, err
	}
	if upd.ManagerID != nil && *upd.ManagerID == upd.ID {
		return nil, dErrors.Validation("validation failed", []string{"employee cannot be their own manager"})
	}
	return run(ctx, s.runner, func(ctx context.Context) (*models.Employee, error) {
		checks := []integrity.Check{integrity.EmployeeMustExist(s.checker, upd.ID)}
		if upd.ManagerID != nil {
			checks = append(checks, managerMustExist(s.checker, *upd.ManagerID))
		}
		if err := integrity.CheckAll(ctx, checks...); err != nil {
			return nil, err
		}
		e, err := s.store.GetEmployee(ctx, upd.ID)
		if err != nil {
			return nil, storeError(err, "employee", "")
		}
		audit.RecordPrior(ctx, *e)

		upd.Apply(e)
		e.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.UpdateEmployee(ctx, e); err != nil {
			return nil, storeError(err, "employee", "an employee with this email or tax id already exists")
		}
		return e, nil
	})
}

// DeleteEmployee returns the removed record.
func (s *Service) DeleteEmployee(ctx context.Context, id domain.EmployeeID) (*models.Employee, error) {
	return run(ctx, s.runner, func(ctx context.Context) (*models.Employee, error) {
		e, err := s.store.GetEmployee(ctx, id)
		if err != nil {
			return nil, storeError(err, "employee", "")
		}
		audit.RecordPrior(ctx, *e)
		if err := s.store.DeleteEmployee(ctx, id); err != nil {
			return nil, storeError(err, "employee", "employee still has evaluations or direct reports")
		}
		return e, nil
	})
}

// -----------------------------------------------------------------------------
// Evaluation cycles
// -----------------------------------------------------------------------------

func (s *Service) CreateCycle(ctx context.Context, in models.CycleInput) (*models.Cycle, error) {
	if err := validation.Assert(validation.ValidateEvaluationCycleData(in.Candidate())); err != nil {
		return nil, err
	}
	return run(ctx, s.runner, func(ctx context.Context) (*models.Cycle, error) {
		now := requestcontext.Now(ctx)
		c := &models.Cycle{
			Name:      in.Name,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Status:    models.CycleStatusPlanned,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.CreateCycle(ctx, c); err != nil {
			return nil, storeError(err, "evaluation cycle", "evaluation cycle conflicts with an existing one")
		}
		return c, nil
	})
}

func (s *Service) GetCycle(ctx context.Context, id domain.CycleID) (*models.Cycle, error) {
	c, err := s.store.GetCycle(ctx, id)
	if err != nil {
		return nil, storeError(err, "evaluation cycle", "")
	}
	return c, nil
}

// UpdateCycle edits name and dates. Closed cycles are frozen.
func (s *Service) UpdateCycle(ctx context.Context, upd models.CycleUpdate) (*models.Cycle, error) {
	if err := validation.Assert(validation.ValidateEvaluationCycleData(upd.Candidate())); err != nil {
		return nil, err
	}
	return s.mutateCycle(ctx, upd.ID, func(c *models.Cycle) error {
		if c.Status == models.CycleStatusClosed {
			return dErrors.New(dErrors.CodeConflict, "evaluation cycle is closed")
		}
		c.Name = upd.Name
		c.StartDate = upd.StartDate
		c.EndDate = upd.EndDate
		return nil
	})
}

// StartCycle moves a planned cycle to active.
func (s *Service) StartCycle(ctx context.Context, id domain.CycleID) (*models.Cycle, error) {
	return s.mutateCycle(ctx, id, transition(models.CycleStatusPlanned, models.CycleStatusActive))
}

// CloseCycle moves an active cycle to closed.
func (s *Service) CloseCycle(ctx context.Context, id domain.CycleID) (*models.Cycle, error) {
	return s.mutateCycle(ctx, id, transition(models.CycleStatusActive, models.CycleStatusClosed))
}

func (s *Service) DeleteCycle(ctx context.Context, id domain.CycleID) (*models.Cycle, error) {
	return run(ctx, s.runner, func(ctx context.Context) (*models.Cycle, error) {
		c, err := s.store.GetCycle(ctx, id)
		if err != nil {
			return nil, storeError(err, "evaluation cycle", "")
		}
		audit.RecordPrior(ctx, *c)
		if err := s.store.DeleteCycle(ctx, id); err != nil {
			return nil, storeError(err, "evaluation cycle", "evaluation cycle still has evaluations")
		}
		return c, nil
	})
}

func (s *Service) mutateCycle(ctx context.Context, id domain.CycleID, mutate func(*models.Cycle) error) (*models.Cycle, error) {
	return run(ctx, s.runner, func(ctx context.Context) (*models.Cycle, error) {
		c, err := s.store.GetCycle(ctx, id)
		if err != nil {
			return nil, storeError(err, "evaluation cycle", "")
		}
		audit.RecordPrior(ctx, *c)
		if err := mutate(c); err != nil {
			return nil, err
		}
		c.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.UpdateCycle(ctx, c); err != nil {
			return nil, storeError(err, "evaluation cycle", "evaluation cycle conflicts with an existing one")
		}
		return c, nil
	})
}

func transition(from, to models.CycleStatus) func(*models.Cycle) error {
	return func(c *models.Cycle) error {
		if c.Status != from {
			return dErrors.New(dErrors.CodeConflict, "evaluation cycle is "+string(c.Status)+", expected "+string(from))
		}
		c.Status = to
		return nil
	}
}

// -----------------------------------------------------------------------------
// Evaluations
// -----------------------------------------------------------------------------

// CreateEvaluation opens a draft for an employee in a cycle. The employee and
// cycle must exist and the pair must not already have an evaluation.
func (s *Service) CreateEvaluation(ctx context.Context, in models.EvaluationInput) (*models.Evaluation, error) {
	var problems []string
	if in.EmployeeID.IsZero() {
		problems = append(problems, "employee_id is required")
	}
	if in.CycleID.IsZero() {
		problems = append(problems, "cycle_id is required")
	}
	if len(problems) > 0 {
		return nil, dErrors.Validation("validation failed", problems)
	}

	return run(ctx, s.runner, func(ctx context.Context) (*models.Evaluation, error) {
		if err := integrity.CheckAll(ctx,
			integrity.EmployeeMustExist(s.checker, in.EmployeeID),
			integrity.CycleMustExist(s.checker, in.CycleID),
			integrity.EvaluationMustBeAbsent(s.checker, in.EmployeeID, in.CycleID),
		); err != nil {
			return nil, err
		}
		c, err := s.store.GetCycle(ctx, in.CycleID)
		if err != nil {
			return nil, storeError(err, "evaluation cycle", "")
		}
		if c.Status == models.CycleStatusClosed {
			return nil, dErrors.New(dErrors.CodeConflict, "evaluation cycle is closed")
		}

		now := requestcontext.Now(ctx)
		ev := &models.Evaluation{
			EmployeeID: in.EmployeeID,
			CycleID:    in.CycleID,
			Status:     models.EvaluationStatusDraft,
			Comments:   in.Comments,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if actor := requestcontext.Actor(ctx); actor != nil {
			ev.EvaluatorID = actor.ID
		}
		if err := s.store.CreateEvaluation(ctx, ev); err != nil {
			return nil, storeError(err, "evaluation", "evaluation already exists")
		}
		return ev, nil
	})
}

func (s *Service) GetEvaluation(ctx context.Context, id domain.EvaluationID) (*models.Evaluation, error) {
	ev, err := s.store.GetEvaluation(ctx, id)
	if err != nil {
		return nil, storeError(err, "evaluation", "")
	}
	return ev, nil
}

// UpdateEvaluation edits a draft. Approved evaluations are frozen.
func (s *Service) UpdateEvaluation(ctx context.Context, upd models.EvaluationUpdate) (*models.Evaluation, error) {
	return s.mutateEvaluation(ctx, upd.ID, func(ev *models.Evaluation) error {
		if ev.Status == models.EvaluationStatusApproved {
			return dErrors.New(dErrors.CodeConflict, "evaluation is already approved")
		}
		ev.Comments = upd.Comments
		return nil
	})
}

// ApproveEvaluation stamps the approver and time on a draft.
func (s *Service) ApproveEvaluation(ctx context.Context, id domain.EvaluationID) (*models.Evaluation, error) {
	return s.mutateEvaluation(ctx, id, func(ev *models.Evaluation) error {
		if ev.Status == models.EvaluationStatusApproved {
			return dErrors.New(dErrors.CodeConflict, "evaluation is already approved")
		}
		actor := requestcontext.Actor(ctx)
		if actor == nil {
			return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
		}
		by := actor.ID
		at := requestcontext.Now(ctx)
		ev.Status = models.EvaluationStatusApproved
		ev.ApprovedBy = &by
		ev.ApprovedAt = &at
		return nil
	})
}

func (s *Service) mutateEvaluation(ctx context.Context, id domain.EvaluationID, mutate func(*models.Evaluation) error) (*models.Evaluation, error) {
	return run(ctx, s.runner, func(ctx context.Context) (*models.Evaluation, error) {
		ev, err := s.store.GetEvaluation(ctx, id)
		if err != nil {
			return nil, storeError(err, "evaluation", "")
		}
		audit.RecordPrior(ctx, *ev)
		if err := mutate(ev); err != nil {
			return nil, err
		}
		ev.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.UpdateEvaluation(ctx, ev); err != nil {
			return nil, storeError(err, "evaluation", "evaluation conflicts with an existing one")
		}
		return ev, nil
	})
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func run[T any](ctx context.Context, runner txrunner.Runner, work func(ctx context.Context) (T, error)) (T, error) {
	res := txrunner.RunInTransaction(ctx, runner, work)
	return res.Value, res.AsError()
}

func managerMustExist(c integrity.Checker, id domain.EmployeeID) integrity.Check {
	return func(ctx context.Context) error {
		ok, err := c.EmployeeExists(ctx, id)
		return integrity.RequireExists(ok, err, "manager")
	}
}

// storeError maps sentinel store errors onto domain errors. Anything else is
// passed through and becomes an internal transaction failure.
func storeError(err error, resource, conflictMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, resource+" not found")
	case errors.Is(err, sentinel.ErrConflict) && conflictMsg != "":
		return dErrors.Wrap(err, dErrors.CodeConflict, conflictMsg)
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, resource+" store timed out")
	default:
		return err
	}
}
