package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	audit "commitgood/pkg/platform/audit"
)

const defaultCapacity = 10000

// InMemoryStore keeps the most recent committed logs in sequence order.
// Older logs are evicted once capacity is reached.
type InMemoryStore struct {
	mu       sync.RWMutex
	logs     []audit.Log
	capacity int
}

func NewInMemoryStore(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &InMemoryStore{capacity: capacity}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = nil
}

func (s *InMemoryStore) Append(_ context.Context, logs ...audit.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, logs...)
	if over := len(s.logs) - s.capacity; over > 0 {
		s.logs = append([]audit.Log(nil), s.logs[over:]...)
	}
	return nil
}

// ListByEmitter returns retained logs emitted by one component, oldest first.
func (s *InMemoryStore) ListByEmitter(_ context.Context, emitter common.Address) ([]audit.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Log
	for _, l := range s.logs {
		if l.Emitter == emitter {
			out = append(out, l)
		}
	}
	return out, nil
}

// ListAll returns every retained log, oldest first.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Log{}, s.logs...), nil
}

// ListRecent returns the most recent limit logs, oldest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.logs) - limit
	if start < 0 || limit <= 0 {
		start = 0
	}
	return append([]audit.Log{}, s.logs[start:]...), nil
}
