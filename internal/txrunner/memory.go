package txrunner

import (
	"context"
	"errors"
	"sync"

	"avd/internal/txrunner/metrics"
	"avd/pkg/platform/tx"
)

// Snapshotter is an in-memory store that can capture and restore its full state.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// MemoryRunner gives in-memory stores transaction semantics: units of work are
// serialized, and every participant is restored to its snapshot on failure.
type MemoryRunner struct {
	mu      sync.Mutex
	stores  []Snapshotter
	metrics *metrics.Metrics
}

func NewMemoryRunner(stores ...Snapshotter) (*MemoryRunner, error) {
	if len(stores) == 0 {
		return nil, errors.New("at least one store is required")
	}
	return &MemoryRunner{stores: stores}, nil
}

// WithMetrics attaches commit/rollback counters.
func (r *MemoryRunner) WithMetrics(m *metrics.Metrics) *MemoryRunner {
	r.metrics = m
	return r
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshots := make([]any, len(r.stores))
	for i, s := range r.stores {
		snapshots[i] = s.Snapshot()
	}

	err := fn(tx.WithScope(ctx))
	if err == nil {
		// a cancelled caller never commits
		err = ctx.Err()
	}
	if err != nil {
		for i, s := range r.stores {
			s.Restore(snapshots[i])
		}
		if r.metrics != nil {
			r.metrics.IncRollbacks("memory")
		}
		return err
	}
	if r.metrics != nil {
		r.metrics.IncCommits("memory")
	}
	return nil
}
