//go:build integration

package integrity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"avd/internal/integrity"
	"avd/pkg/domain"
	"avd/pkg/testutil/containers"
)

type PostgresCheckerSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	checker *integrity.PostgresChecker
}

func TestPostgresCheckerSuite(t *testing.T) {
	suite.Run(t, new(PostgresCheckerSuite))
}

func (s *PostgresCheckerSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	checker, err := integrity.NewPostgresChecker(s.pg.DB)
	s.Require().NoError(err)
	s.checker = checker
}

func (s *PostgresCheckerSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "evaluations", "evaluation_cycles", "employees"))
}

func (s *PostgresCheckerSuite) TestExistenceProbes() {
	ctx := context.Background()
	var employeeID, cycleID int64
	s.Require().NoError(s.pg.DB.QueryRowContext(ctx,
		`INSERT INTO employees (name, email, birth_date, hire_date) VALUES ('Ana Souza', 'ana@example.com', '1990-05-10', '2015-03-01') RETURNING id`,
	).Scan(&employeeID))
	s.Require().NoError(s.pg.DB.QueryRowContext(ctx,
		`INSERT INTO evaluation_cycles (name, start_date, end_date) VALUES ('2024', '2024-01-01', '2024-12-31') RETURNING id`,
	).Scan(&cycleID))

	ok, err := s.checker.EmployeeExists(ctx, domain.EmployeeID(employeeID))
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.checker.EmployeeExists(ctx, domain.EmployeeID(employeeID+100))
	s.Require().NoError(err)
	s.False(ok, "absence is not an error")

	ok, err = s.checker.EvaluationCycleExists(ctx, domain.CycleID(cycleID))
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.checker.EvaluationExistsForEmployeeInCycle(ctx, domain.EmployeeID(employeeID), domain.CycleID(cycleID))
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.pg.DB.ExecContext(ctx, `INSERT INTO evaluations (employee_id, cycle_id) VALUES ($1, $2)`, employeeID, cycleID)
	s.Require().NoError(err)

	ok, err = s.checker.EvaluationExistsForEmployeeInCycle(ctx, domain.EmployeeID(employeeID), domain.CycleID(cycleID))
	s.Require().NoError(err)
	s.True(ok)
}
