package txrunner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"avd/internal/txrunner/metrics"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/tx"
)

// DefaultTimeout applies when the caller's context has no deadline.
const DefaultTimeout = 5 * time.Second

// SQLRunner runs units of work in a database/sql transaction stored on the
// context, where stores pick it up through tx.QuerierFor.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
	opts    *sql.TxOptions
	metrics *metrics.Metrics
}

type SQLOption func(*SQLRunner)

func WithTimeout(d time.Duration) SQLOption {
	return func(r *SQLRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithTxOptions(opts *sql.TxOptions) SQLOption {
	return func(r *SQLRunner) {
		r.opts = opts
	}
}

func WithMetrics(m *metrics.Metrics) SQLOption {
	return func(r *SQLRunner) {
		r.metrics = m
	}
}

func NewSQLRunner(db *sql.DB, opts ...SQLOption) (*SQLRunner, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	r := &SQLRunner{db: db, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(ctx, r.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = sqlTx.Rollback()
		r.observe("sql", false)
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	r.observe("sql", true)
	return nil
}

func (r *SQLRunner) observe(runner string, committed bool) {
	if r.metrics == nil {
		return
	}
	if committed {
		r.metrics.IncCommits(runner)
	} else {
		r.metrics.IncRollbacks(runner)
	}
}
