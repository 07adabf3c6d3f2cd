package integrity_test

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"avd/internal/integrity"
	"avd/internal/integrity/mocks"
	"avd/pkg/domain"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/tx"
)

func TestRequireExists(t *testing.T) {
	t.Run("missing record is not found", func(t *testing.T) {
		err := integrity.RequireExists(false, nil, "employee")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
		assert.Equal(t, "employee not found", err.Error())
	})

	t.Run("present record passes", func(t *testing.T) {
		assert.NoError(t, integrity.RequireExists(true, nil, "employee"))
	})

	t.Run("lookup failure is internal", func(t *testing.T) {
		err := integrity.RequireExists(false, errors.New("connection reset"), "employee")
		assert.True(t, dErrors.Is(err, dErrors.CodeInternal))
	})
}

func TestRequireAbsent(t *testing.T) {
	err := integrity.RequireAbsent(true, nil, "evaluation")
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Equal(t, "evaluation already exists", err.Error())

	assert.NoError(t, integrity.RequireAbsent(false, nil, "evaluation"))
}

func TestCheckAll(t *testing.T) {
	ctx := context.Background()

	t.Run("all checks pass", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		checker := mocks.NewMockChecker(ctrl)
		checker.EXPECT().EmployeeExists(gomock.Any(), domain.EmployeeID(1)).Return(true, nil)
		checker.EXPECT().EvaluationCycleExists(gomock.Any(), domain.CycleID(2)).Return(true, nil)
		checker.EXPECT().EvaluationExistsForEmployeeInCycle(gomock.Any(), domain.EmployeeID(1), domain.CycleID(2)).Return(false, nil)

		err := integrity.CheckAll(ctx,
			integrity.EmployeeMustExist(checker, 1),
			integrity.CycleMustExist(checker, 2),
			integrity.EvaluationMustBeAbsent(checker, 1, 2),
		)
		assert.NoError(t, err)
	})

	t.Run("earliest violation wins", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		checker := mocks.NewMockChecker(ctrl)
		checker.EXPECT().EmployeeExists(gomock.Any(), domain.EmployeeID(1)).Return(false, nil)
		checker.EXPECT().EvaluationCycleExists(gomock.Any(), domain.CycleID(2)).Return(false, nil)

		err := integrity.CheckAll(ctx,
			integrity.EmployeeMustExist(checker, 1),
			integrity.CycleMustExist(checker, 2),
		)
		require.Error(t, err)
		assert.Equal(t, "employee not found", err.Error())
	})

	t.Run("duplicate evaluation is a conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		checker := mocks.NewMockChecker(ctrl)
		checker.EXPECT().EvaluationExistsForEmployeeInCycle(gomock.Any(), domain.EmployeeID(1), domain.CycleID(2)).Return(true, nil)

		err := integrity.CheckAll(ctx, integrity.EvaluationMustBeAbsent(checker, 1, 2))
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})

	t.Run("no checks", func(t *testing.T) {
		assert.NoError(t, integrity.CheckAll(ctx))
	})
}

func TestCheckAllInsideTransactionRunsSequentially(t *testing.T) {
	var inFlight, peak int32
	var order []int
	check := func(i int, err error) integrity.Check {
		return func(context.Context) error {
			n := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			order = append(order, i)
			time.Sleep(5 * time.Millisecond)
			return err
		}
	}

	ctx := tx.WithTx(context.Background(), &sql.Tx{})

	t.Run("one query at a time", func(t *testing.T) {
		peak, order = 0, nil
		require.NoError(t, integrity.CheckAll(ctx, check(0, nil), check(1, nil), check(2, nil)))
		assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
		assert.Equal(t, []int{0, 1, 2}, order)
	})

	t.Run("stops at the first violation", func(t *testing.T) {
		peak, order = 0, nil
		missing := dErrors.New(dErrors.CodeNotFound, "employee not found")
		err := integrity.CheckAll(ctx, check(0, missing), check(1, nil))
		assert.Equal(t, missing, err)
		assert.Equal(t, []int{0}, order)
	})
}
