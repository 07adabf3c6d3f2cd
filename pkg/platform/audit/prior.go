package audit

import (
	"context"
	"sync"
)

type priorKey struct{}

// priorState carries the state a handler loaded before mutating it, so the
// audit layer can record a diff instead of the input alone.
type priorState struct {
	mu    sync.Mutex
	value any
	set   bool
}

// WithPriorState prepares ctx to receive a prior state from the handler.
func WithPriorState(ctx context.Context) context.Context {
	return context.WithValue(ctx, priorKey{}, &priorState{})
}

// RecordPrior stores the state a record had before this mutation. It is a
// no-op when ctx was not prepared by WithPriorState.
func RecordPrior(ctx context.Context, value any) {
	p, ok := ctx.Value(priorKey{}).(*priorState)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value, p.set = value, true
}

// PriorState returns what the handler recorded, if anything.
func PriorState(ctx context.Context) (any, bool) {
	p, ok := ctx.Value(priorKey{}).(*priorState)
	if !ok {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.set
}
