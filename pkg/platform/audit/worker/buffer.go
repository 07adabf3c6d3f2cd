package worker

import (
	"sync"

	audit "avd/pkg/platform/audit"
)

// ringBuffer is a bounded FIFO of entries. When full, the oldest entry is
// dropped to make room.
type ringBuffer struct {
	mu       sync.Mutex
	entries  []audit.Entry
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int
	dropped  int64
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = 1024
	}
	return &ringBuffer{entries: make([]audit.Entry, capacity), capacity: capacity}
}

// push adds an entry and reports whether an older one was evicted.
func (b *ringBuffer) push(e audit.Entry) (evicted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == b.capacity {
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		evicted = true
	}
	b.entries[b.head] = e
	b.head = (b.head + 1) % b.capacity
	b.count++
	return evicted
}

// popBatch removes up to n entries in FIFO order.
func (b *ringBuffer) popBatch(n int) []audit.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	n = min(n, b.count)
	out := make([]audit.Entry, n)
	for i := range n {
		out[i] = b.entries[b.tail]
		b.entries[b.tail] = audit.Entry{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return out
}

func (b *ringBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *ringBuffer) droppedCount() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
