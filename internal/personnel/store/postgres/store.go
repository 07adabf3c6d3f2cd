// Package postgres persists personnel records with database/sql. Every query
// runs through tx.QuerierFor so writes join the unit of work on ctx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"avd/internal/personnel/models"
	"avd/pkg/domain"
	"avd/pkg/platform/sentinel"
	"avd/pkg/platform/tx"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	return &Store{db: db}, nil
}

// -----------------------------------------------------------------------------
// Employees
// -----------------------------------------------------------------------------

const employeeColumns = `id, name, email, tax_id, phone, birth_date, hire_date, manager_id, created_at, updated_at`

func (s *Store) CreateEmployee(ctx context.Context, e *models.Employee) error {
	var id int64
	err := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO employees (name, email, tax_id, phone, birth_date, hire_date, manager_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		e.Name, e.Email, nullString(e.TaxID), nullString(e.Phone),
		e.BirthDate, e.HireDate, nullEmployeeID(e.ManagerID), e.CreatedAt, e.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return translate("insert employee", err)
	}
	e.ID = domain.EmployeeID(id)
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id domain.EmployeeID) (*models.Employee, error) {
	row := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, int64(id))

	var (
		e         models.Employee
		rawID     int64
		taxID     sql.NullString
		phone     sql.NullString
		managerID sql.NullInt64
	)
	err := row.Scan(&rawID, &e.Name, &e.Email, &taxID, &phone, &e.BirthDate, &e.HireDate, &managerID, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select employee: %w", err)
	}
	e.ID = domain.EmployeeID(rawID)
	e.TaxID = taxID.String
	e.Phone = phone.String
	if managerID.Valid {
		m := domain.EmployeeID(managerID.Int64)
		e.ManagerID = &m
	}
	return &e, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, `
		UPDATE employees
		SET name = $2, email = $3, tax_id = $4, phone = $5, birth_date = $6,
		    hire_date = $7, manager_id = $8, updated_at = $9
		WHERE id = $1`,
		int64(e.ID), e.Name, e.Email, nullString(e.TaxID), nullString(e.Phone),
		e.BirthDate, e.HireDate, nullEmployeeID(e.ManagerID), e.UpdatedAt,
	)
	if err != nil {
		return translate("update employee", err)
	}
	return requireRow(res, "update employee")
}

func (s *Store) DeleteEmployee(ctx context.Context, id domain.EmployeeID) error {
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, int64(id))
	if err != nil {
		return translate("delete employee", err)
	}
	return requireRow(res, "delete employee")
}

// -----------------------------------------------------------------------------
// Cycles
// -----------------------------------------------------------------------------

func (s *Store) CreateCycle(ctx context.Context, c *models.Cycle) error {
	var id int64
	err := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO evaluation_cycles (name, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		c.Name, c.StartDate, c.EndDate, string(c.Status), c.CreatedAt, c.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return translate("insert evaluation cycle", err)
	}
	c.ID = domain.CycleID(id)
	return nil
}

func (s *Store) GetCycle(ctx context.Context, id domain.CycleID) (*models.Cycle, error) {
	var (
		c      models.Cycle
		rawID  int64
		status string
	)
	err := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, status, created_at, updated_at
		FROM evaluation_cycles WHERE id = $1`, int64(id),
	).Scan(&rawID, &c.Name, &c.StartDate, &c.EndDate, &status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select evaluation cycle: %w", err)
	}
	c.ID = domain.CycleID(rawID)
	c.Status = models.CycleStatus(status)
	return &c, nil
}

func (s *Store) UpdateCycle(ctx context.Context, c *models.Cycle) error {
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, `
		UPDATE evaluation_cycles
		SET name = $2, start_date = $3, end_date = $4, status = $5, updated_at = $6
		WHERE id = $1`,
		int64(c.ID), c.Name, c.StartDate, c.EndDate, string(c.Status), c.UpdatedAt,
	)
	if err != nil {
		return translate("update evaluation cycle", err)
	}
	return requireRow(res, "update evaluation cycle")
}

func (s *Store) DeleteCycle(ctx context.Context, id domain.CycleID) error {
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, `DELETE FROM evaluation_cycles WHERE id = $1`, int64(id))
	if err != nil {
		return translate("delete evaluation cycle", err)
	}
	return requireRow(res, "delete evaluation cycle")
}

// -----------------------------------------------------------------------------
// Evaluations
// -----------------------------------------------------------------------------

func (s *Store) CreateEvaluation(ctx context.Context, ev *models.Evaluation) error {
	var id int64
	err := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO evaluations (employee_id, cycle_id, evaluator_id, status, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		int64(ev.EmployeeID), int64(ev.CycleID), int64(ev.EvaluatorID), string(ev.Status),
		ev.Comments, ev.CreatedAt, ev.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return translate("insert evaluation", err)
	}
	ev.ID = domain.EvaluationID(id)
	return nil
}

func (s *Store) GetEvaluation(ctx context.Context, id domain.EvaluationID) (*models.Evaluation, error) {
	var (
		ev                           models.Evaluation
		rawID, empID, cyc, evaluator int64
		status                       string
		approvedBy                   sql.NullInt64
		approvedAt                   sql.NullTime
	)
	err := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, employee_id, cycle_id, evaluator_id, status, comments, approved_by, approved_at, created_at, updated_at
		FROM evaluations WHERE id = $1`, int64(id),
	).Scan(&rawID, &empID, &cyc, &evaluator, &status, &ev.Comments, &approvedBy, &approvedAt, &ev.CreatedAt, &ev.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select evaluation: %w", err)
	}
	ev.ID = domain.EvaluationID(rawID)
	ev.EmployeeID = domain.EmployeeID(empID)
	ev.CycleID = domain.CycleID(cyc)
	ev.EvaluatorID = domain.UserID(evaluator)
	ev.Status = models.EvaluationStatus(status)
	if approvedBy.Valid {
		by := domain.UserID(approvedBy.Int64)
		ev.ApprovedBy = &by
	}
	if approvedAt.Valid {
		at := approvedAt.Time
		ev.ApprovedAt = &at
	}
	return &ev, nil
}

func (s *Store) UpdateEvaluation(ctx context.Context, ev *models.Evaluation) error {
	var approvedBy sql.NullInt64
	if ev.ApprovedBy != nil {
		approvedBy = sql.NullInt64{Int64: int64(*ev.ApprovedBy), Valid: true}
	}
	var approvedAt sql.NullTime
	if ev.ApprovedAt != nil {
		approvedAt = sql.NullTime{Time: *ev.ApprovedAt, Valid: true}
	}
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, `
		UPDATE evaluations
		SET status = $2, comments = $3, approved_by = $4, approved_at = $5, updated_at = $6
		WHERE id = $1`,
		int64(ev.ID), string(ev.Status), ev.Comments, approvedBy, approvedAt, ev.UpdatedAt,
	)
	if err != nil {
		return translate("update evaluation", err)
	}
	return requireRow(res, "update evaluation")
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

// translate maps constraint violations onto sentinel.ErrConflict.
func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgCheckViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, sentinel.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullEmployeeID(id *domain.EmployeeID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}
