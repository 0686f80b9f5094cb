package worker

import (
	"sync"

	audit "commitgood/pkg/platform/audit"
)

// RingBuffer is a bounded, thread-safe FIFO of committed logs.
// When full, the oldest logs are dropped to make room for new ones.
type RingBuffer struct {
	mu       sync.Mutex
	logs     []audit.Log
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int

	dropped int64
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 10000
	}
	return &RingBuffer{
		logs:     make([]audit.Log, capacity),
		capacity: capacity,
	}
}

// Enqueue adds logs in order, dropping the oldest if necessary.
// It returns how many logs were dropped to make room.
func (b *RingBuffer) Enqueue(logs ...audit.Log) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := 0
	for _, l := range logs {
		if b.count >= b.capacity {
			b.tail = (b.tail + 1) % b.capacity
			b.count--
			b.dropped++
			dropped++
		}
		b.logs[b.head] = l
		b.head = (b.head + 1) % b.capacity
		b.count++
	}
	return dropped
}

// DequeueBatch removes up to n logs from the buffer, oldest first.
func (b *RingBuffer) DequeueBatch(n int) []audit.Log {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	if n <= 0 || n > b.count {
		n = b.count
	}

	result := make([]audit.Log, n)
	for i := 0; i < n; i++ {
		result[i] = b.logs[b.tail]
		b.logs[b.tail] = audit.Log{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return result
}

// Len returns the current number of buffered logs.
func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns the total number of dropped logs.
func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
