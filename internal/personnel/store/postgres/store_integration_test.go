//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"avd/internal/integrity"
	"avd/internal/personnel/models"
	"avd/internal/personnel/service"
	"avd/internal/personnel/store/postgres"
	"avd/internal/txrunner"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/sentinel"
	"avd/pkg/requestcontext"
	"avd/pkg/testutil"
	"avd/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	store   *postgres.Store
	service *service.Service
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	var err error
	s.store, err = postgres.New(s.pg.DB)
	s.Require().NoError(err)
	checker, err := integrity.NewPostgresChecker(s.pg.DB)
	s.Require().NoError(err)
	runner, err := txrunner.NewSQLRunner(s.pg.DB)
	s.Require().NoError(err)
	s.service, err = service.New(s.store, checker, runner)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "evaluations", "evaluation_cycles", "employees"))
}

func (s *PostgresStoreSuite) ctx() context.Context {
	return requestcontext.WithTime(testutil.AsActor(testutil.HR), time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC))
}

func (s *PostgresStoreSuite) employee(email, taxID string) models.EmployeeInput {
	return models.EmployeeInput{
		Name:      "Ana Souza",
		Email:     email,
		TaxID:     taxID,
		BirthDate: time.Date(1990, 5, 10, 0, 0, 0, 0, time.UTC),
		HireDate:  time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *PostgresStoreSuite) TestEmployeeRoundTrip() {
	e, err := s.service.CreateEmployee(s.ctx(), s.employee("ana@example.com", ""))
	s.Require().NoError(err)

	got, err := s.store.GetEmployee(context.Background(), e.ID)
	s.Require().NoError(err)
	s.Equal("ana@example.com", got.Email)
	s.Empty(got.TaxID, "blank tax id is stored as NULL")
	s.Nil(got.ManagerID)
}

func (s *PostgresStoreSuite) TestUniqueViolationIsConflict() {
	_, err := s.service.CreateEmployee(s.ctx(), s.employee("ana@example.com", "52998224725"))
	s.Require().NoError(err)

	_, err = s.service.CreateEmployee(s.ctx(), s.employee("bia@example.com", "52998224725"))
	s.True(dErrors.Is(err, dErrors.CodeConflict))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFailedEvaluationRollsBack() {
	e, err := s.service.CreateEmployee(s.ctx(), s.employee("ana@example.com", ""))
	s.Require().NoError(err)

	_, err = s.service.CreateEvaluation(s.ctx(), models.EvaluationInput{EmployeeID: e.ID, CycleID: 999})
	s.True(dErrors.Is(err, dErrors.CodeNotFound))

	var n int
	s.Require().NoError(s.pg.DB.QueryRow(`SELECT count(*) FROM evaluations`).Scan(&n))
	s.Zero(n)
}

func (s *PostgresStoreSuite) TestApprovalIsPersisted() {
	ctx := s.ctx()
	e, err := s.service.CreateEmployee(ctx, s.employee("ana@example.com", ""))
	s.Require().NoError(err)
	c, err := s.service.CreateCycle(ctx, models.CycleInput{
		Name:      "2024",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	ev, err := s.service.CreateEvaluation(ctx, models.EvaluationInput{EmployeeID: e.ID, CycleID: c.ID})
	s.Require().NoError(err)

	_, err = s.service.ApproveEvaluation(ctx, ev.ID)
	s.Require().NoError(err)

	got, err := s.store.GetEvaluation(context.Background(), ev.ID)
	s.Require().NoError(err)
	s.Equal(models.EvaluationStatusApproved, got.Status)
	s.Require().NotNil(got.ApprovedBy)
	s.Equal(testutil.HR.ID, *got.ApprovedBy)
}

func (s *PostgresStoreSuite) TestRepeatedWritesRunEveryCheckInTheTransaction() {
	ctx := s.ctx()
	c, err := s.service.CreateCycle(ctx, models.CycleInput{
		Name:      "2024",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	manager, err := s.service.CreateEmployee(ctx, s.employee("chefe@example.com", ""))
	s.Require().NoError(err)

	for i := 0; i < 25; i++ {
		in := s.employee(fmt.Sprintf("ana%d@example.com", i), "")
		in.ManagerID = &manager.ID
		e, err := s.service.CreateEmployee(ctx, in)
		s.Require().NoError(err, "employee %d", i)

		_, err = s.service.UpdateEmployee(ctx, models.EmployeeUpdate{ID: e.ID, EmployeeInput: in})
		s.Require().NoError(err, "update %d", i)

		_, err = s.service.CreateEvaluation(ctx, models.EvaluationInput{EmployeeID: e.ID, CycleID: c.ID})
		s.Require().NoError(err, "evaluation %d", i)
	}

	var n int
	s.Require().NoError(s.pg.DB.QueryRow(`SELECT count(*) FROM evaluations`).Scan(&n))
	s.Equal(25, n)
}
