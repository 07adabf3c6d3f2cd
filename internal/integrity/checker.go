// Package integrity enforces foreign-key-like invariants before a write:
// referenced records must exist and unique records must not be duplicated.
// Absence is a normal boolean outcome; only infrastructure failures are errors.
package integrity

//go:generate mockgen -source=checker.go -destination=mocks/mocks.go -package=mocks Checker

import (
	"context"

	"golang.org/x/sync/errgroup"

	"avd/pkg/domain"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/tx"
)

// Checker answers bounded existence queries against the persistence layer.
type Checker interface {
	EmployeeExists(ctx context.Context, id domain.EmployeeID) (bool, error)
	EvaluationCycleExists(ctx context.Context, id domain.CycleID) (bool, error)
	EvaluationExistsForEmployeeInCycle(ctx context.Context, employeeID domain.EmployeeID, cycleID domain.CycleID) (bool, error)
}

// RequireExists turns an existence lookup into a not-found error when the
// record is missing.
func RequireExists(exists bool, err error, resource string) error {
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check "+resource)
	}
	if !exists {
		return dErrors.New(dErrors.CodeNotFound, resource+" not found")
	}
	return nil
}

// RequireAbsent turns an existence lookup into a conflict error when the
// record is already present.
func RequireAbsent(exists bool, err error, resource string) error {
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check "+resource)
	}
	if exists {
		return dErrors.New(dErrors.CodeConflict, resource+" already exists")
	}
	return nil
}

// Check is one deferred referential assertion.
type Check func(ctx context.Context) error

// EmployeeMustExist fails with not-found when the employee is missing.
func EmployeeMustExist(c Checker, id domain.EmployeeID) Check {
	return func(ctx context.Context) error {
		ok, err := c.EmployeeExists(ctx, id)
		return RequireExists(ok, err, "employee")
	}
}

// CycleMustExist fails with not-found when the evaluation cycle is missing.
func CycleMustExist(c Checker, id domain.CycleID) Check {
	return func(ctx context.Context) error {
		ok, err := c.EvaluationCycleExists(ctx, id)
		return RequireExists(ok, err, "evaluation cycle")
	}
}

// EvaluationMustBeAbsent fails with conflict when the employee already has an
// evaluation in the cycle.
func EvaluationMustBeAbsent(c Checker, employeeID domain.EmployeeID, cycleID domain.CycleID) Check {
	return func(ctx context.Context) error {
		ok, err := c.EvaluationExistsForEmployeeInCycle(ctx, employeeID, cycleID)
		return RequireAbsent(ok, err, "evaluation")
	}
}

// CheckAll runs independent checks concurrently and returns the violation of
// the earliest check in argument order, so callers see a stable error.
// Inside a SQL transaction the checks run one after another: a *sql.Tx pins a
// single connection, which cannot serve overlapping queries.
func CheckAll(ctx context.Context, checks ...Check) error {
	if _, ok := tx.From(ctx); ok {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			errs[i] = check(ctx)
			return nil
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
