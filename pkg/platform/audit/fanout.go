package audit

import (
	"context"
	"errors"
	"fmt"
)

// Fanout writes to a queryable primary store and mirrors every entry to
// secondary sinks. Reads are served by the primary only.
type Fanout struct {
	primary Store
	sinks   []Sink
}

func NewFanout(primary Store, sinks ...Sink) *Fanout {
	return &Fanout{primary: primary, sinks: sinks}
}

// Append writes the primary first; sinks are attempted even when it fails so
// the entry survives somewhere. All failures are joined.
func (f *Fanout) Append(ctx context.Context, entry Entry) error {
	var errs []error
	if err := f.primary.Append(ctx, entry); err != nil {
		errs = append(errs, fmt.Errorf("primary: %w", err))
	}
	for i, sink := range f.sinks {
		if err := sink.Append(ctx, entry); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) List(ctx context.Context, filter Filter) ([]Entry, error) {
	return f.primary.List(ctx, filter)
}

func (f *Fanout) Latest(ctx context.Context, resource, resourceID string) (*Entry, error) {
	return f.primary.Latest(ctx, resource, resourceID)
}
