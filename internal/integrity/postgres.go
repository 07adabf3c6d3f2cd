package integrity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"avd/pkg/domain"
	"avd/pkg/platform/tx"
)

// PostgresChecker issues SELECT 1 ... LIMIT 1 probes, joining the transaction
// on ctx when one is open so checks see the unit of work's own writes.
type PostgresChecker struct {
	db *sql.DB
}

func NewPostgresChecker(db *sql.DB) (*PostgresChecker, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	return &PostgresChecker{db: db}, nil
}

func (c *PostgresChecker) EmployeeExists(ctx context.Context, id domain.EmployeeID) (bool, error) {
	return c.exists(ctx, "employee", `SELECT 1 FROM employees WHERE id = $1 LIMIT 1`, int64(id))
}

func (c *PostgresChecker) EvaluationCycleExists(ctx context.Context, id domain.CycleID) (bool, error) {
	return c.exists(ctx, "evaluation cycle", `SELECT 1 FROM evaluation_cycles WHERE id = $1 LIMIT 1`, int64(id))
}

func (c *PostgresChecker) EvaluationExistsForEmployeeInCycle(ctx context.Context, employeeID domain.EmployeeID, cycleID domain.CycleID) (bool, error) {
	return c.exists(ctx, "evaluation",
		`SELECT 1 FROM evaluations WHERE employee_id = $1 AND cycle_id = $2 LIMIT 1`,
		int64(employeeID), int64(cycleID))
}

func (c *PostgresChecker) exists(ctx context.Context, what, query string, args ...any) (bool, error) {
	var one int
	err := tx.QuerierFor(ctx, c.db).QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s exists: %w", what, err)
	}
	return true, nil
}
