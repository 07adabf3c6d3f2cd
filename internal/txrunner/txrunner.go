// Package txrunner executes units of work atomically and reports the outcome
// as a tagged Result rather than through panics or half-applied state.
package txrunner

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/sentinel"
	"avd/pkg/platform/tx"
)

var tracer = otel.Tracer("avd/internal/txrunner")

// Runner opens one unit of work, hands fn a context that carries it, then
// commits when fn returns nil and rolls back otherwise.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Result is the tagged outcome of RunInTransaction. When OK is false, Err is
// the failure message and Cause the original error.
type Result[T any] struct {
	Value T
	Err   string
	OK    bool
	Cause error
}

// AsError converts a failed result into an error for the caller. Domain errors
// raised by the work keep their code; anything else becomes an internal
// "transaction failed" error.
func (r Result[T]) AsError() error {
	if r.OK {
		return nil
	}
	if de, ok := dErrors.As(r.Cause); ok && de.Code != dErrors.CodeInternal {
		return r.Cause
	}
	return dErrors.Wrap(r.Cause, dErrors.CodeInternal, "transaction failed: "+r.Err)
}

// PanicError carries a panic raised inside a unit of work.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprint(e.Value) }

// RunInTransaction runs work inside one transaction. A second transaction on a
// context that already carries one is refused.
func RunInTransaction[T any](ctx context.Context, runner Runner, work func(ctx context.Context) (T, error)) Result[T] {
	ctx, span := tracer.Start(ctx, "txrunner.RunInTransaction")
	defer span.End()

	if tx.Active(ctx) {
		span.SetStatus(codes.Error, sentinel.ErrNestedTx.Error())
		return failure[T](dErrors.Wrap(sentinel.ErrNestedTx, dErrors.CodeInvariantViolation, sentinel.ErrNestedTx.Error()))
	}

	var value T
	err := runner.RunInTx(ctx, func(txCtx context.Context) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = &PanicError{Value: p}
			}
		}()
		value, err = work(txCtx)
		return err
	})
	if err != nil {
		var pe *PanicError
		span.SetAttributes(attribute.Bool("tx.panic", errors.As(err, &pe)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return failure[T](err)
	}
	return Result[T]{Value: value, OK: true}
}

func failure[T any](err error) Result[T] {
	return Result[T]{Err: err.Error(), Cause: err}
}
