package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "avd/pkg/platform/audit"
	"avd/pkg/platform/audit/store/memory"
)

func entry(resourceID string) audit.Entry {
	return audit.NewEntry(audit.NewContext(nil, "process.start", resourceID), time.Now())
}

func TestRingBufferDropsOldest(t *testing.T) {
	b := newRingBuffer(2)
	assert.False(t, b.push(entry("1")))
	assert.False(t, b.push(entry("2")))
	assert.True(t, b.push(entry("3")))

	got := b.popBatch(10)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ResourceID)
	assert.Equal(t, "3", got[1].ResourceID)
	assert.EqualValues(t, 1, b.droppedCount())
	assert.Nil(t, b.popBatch(1))
}

func TestWriterPersistsInOrderAndFlushesOnShutdown(t *testing.T) {
	store := memory.NewInMemoryStore()
	w := New(store, WithBatchSize(2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := range 5 {
		require.NoError(t, w.Append(context.Background(), entry(fmt.Sprint(i))))
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, 0, w.Pending())
	assert.Equal(t, 5, store.Len())
	latest, err := store.Latest(context.Background(), "process", "")
	require.NoError(t, err)
	assert.Equal(t, "4", latest.ResourceID)
}

type brokenSink struct{}

func (brokenSink) Append(context.Context, audit.Entry) error { return errors.New("disk full") }

func TestWriterReportsFailures(t *testing.T) {
	var (
		mu     sync.Mutex
		failed []string
		drops  int
	)
	w := New(brokenSink{},
		WithCapacity(1),
		WithErrorHandler(func(_ context.Context, e audit.Entry, err error) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, e.ResourceID+":"+err.Error())
		}),
		WithDropHandler(func() { drops++ }),
	)

	_ = w.Append(context.Background(), entry("a"))
	_ = w.Append(context.Background(), entry("b"))
	w.Flush(context.Background())

	assert.Equal(t, 1, drops)
	assert.Equal(t, []string{"b:disk full"}, failed)
	assert.EqualValues(t, 1, w.Dropped())
}
