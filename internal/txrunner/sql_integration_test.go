//go:build integration

package txrunner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"avd/pkg/platform/tx"
	"avd/pkg/testutil/containers"
)

type SQLRunnerSuite struct {
	suite.Suite
	pg     *containers.PostgresContainer
	runner *SQLRunner
}

func TestSQLRunnerSuite(t *testing.T) {
	suite.Run(t, new(SQLRunnerSuite))
}

func (s *SQLRunnerSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	runner, err := NewSQLRunner(s.pg.DB, WithTimeout(2*time.Second))
	s.Require().NoError(err)
	s.runner = runner
}

func (s *SQLRunnerSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "evaluation_cycles"))
}

func (s *SQLRunnerSuite) insertCycle(ctx context.Context, name string) error {
	_, err := tx.QuerierFor(ctx, s.pg.DB).ExecContext(ctx,
		`INSERT INTO evaluation_cycles (name, start_date, end_date) VALUES ($1, '2024-01-01', '2024-12-31')`, name)
	return err
}

func (s *SQLRunnerSuite) countCycles() int {
	var n int
	s.Require().NoError(s.pg.DB.QueryRow(`SELECT count(*) FROM evaluation_cycles`).Scan(&n))
	return n
}

func (s *SQLRunnerSuite) TestCommit() {
	res := RunInTransaction(context.Background(), s.runner, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.insertCycle(ctx, "2024")
	})
	s.True(res.OK, res.Err)
	s.Equal(1, s.countCycles())
}

func (s *SQLRunnerSuite) TestRollbackOnError() {
	res := RunInTransaction(context.Background(), s.runner, func(ctx context.Context) (struct{}, error) {
		s.Require().NoError(s.insertCycle(ctx, "2024"))
		return struct{}{}, errors.New("second step failed")
	})
	s.False(res.OK)
	s.Equal("second step failed", res.Err)
	s.Equal(0, s.countCycles())
}

func (s *SQLRunnerSuite) TestRollbackOnPanic() {
	res := RunInTransaction(context.Background(), s.runner, func(ctx context.Context) (struct{}, error) {
		s.Require().NoError(s.insertCycle(ctx, "2024"))
		panic("unexpected nil map")
	})
	s.False(res.OK)
	s.Equal(0, s.countCycles())
}
