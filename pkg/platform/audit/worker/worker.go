// Package worker persists audit entries off the request path. Callers enqueue
// and return immediately; a single background loop drains to the sink.
package worker

import (
	"context"
	"time"

	audit "avd/pkg/platform/audit"
)

// ErrorHandler observes entries that could not be persisted.
type ErrorHandler func(ctx context.Context, entry audit.Entry, err error)

// Writer buffers entries and persists them in batches.
type Writer struct {
	sink         audit.Sink
	buf          *ringBuffer
	notify       chan struct{}
	batchSize    int
	writeTimeout time.Duration
	onError      ErrorHandler
	onDrop       func()
}

type Option func(*Writer)

// WithCapacity bounds the buffer; overflow evicts the oldest entry.
func WithCapacity(n int) Option {
	return func(w *Writer) { w.buf = newRingBuffer(n) }
}

func WithBatchSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithWriteTimeout bounds each sink call.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(w *Writer) { w.onError = h }
}

// WithDropHandler is called whenever a buffered entry is evicted unwritten.
func WithDropHandler(h func()) Option {
	return func(w *Writer) { w.onDrop = h }
}

func New(sink audit.Sink, opts ...Option) *Writer {
	w := &Writer{
		sink:         sink,
		buf:          newRingBuffer(1024),
		notify:       make(chan struct{}, 1),
		batchSize:    64,
		writeTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Append enqueues the entry. It never blocks and never fails, which lets the
// writer stand in for a synchronous sink.
func (w *Writer) Append(_ context.Context, entry audit.Entry) error {
	if w.buf.push(entry) && w.onDrop != nil {
		w.onDrop()
	}
	select {
	case w.notify <- struct{}{}:
	default:
	}
	return nil
}

// Run drains the buffer until ctx is cancelled, then flushes what is left.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.Flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-w.notify:
			w.Flush(ctx)
		}
	}
}

// Flush persists every buffered entry.
func (w *Writer) Flush(ctx context.Context) {
	for {
		batch := w.buf.popBatch(w.batchSize)
		if len(batch) == 0 {
			return
		}
		for _, entry := range batch {
			w.write(ctx, entry)
		}
	}
}

func (w *Writer) write(ctx context.Context, entry audit.Entry) {
	wctx, cancel := context.WithTimeout(ctx, w.writeTimeout)
	defer cancel()
	if err := w.sink.Append(wctx, entry); err != nil && w.onError != nil {
		w.onError(ctx, entry, err)
	}
}

// Pending reports buffered entries not yet written.
func (w *Writer) Pending() int { return w.buf.len() }

// Dropped reports entries evicted because the buffer was full.
func (w *Writer) Dropped() int64 { return w.buf.droppedCount() }
