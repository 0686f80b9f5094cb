// Package memory is the in-process state backend.
package memory

import (
	"context"
	"sync"

	"commitgood/internal/state"
)

// Backend keeps committed state in a map. Commits apply under one lock, so
// readers never observe half of a commit.
type Backend struct {
	mu   sync.RWMutex
	data map[string][]byte
	seq  uint64
}

func New() *Backend {
	return &Backend{data: make(map[string][]byte)}
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *Backend) Commit(ctx context.Context, c *state.Commit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range c.Writes {
		b.data[w.Key] = w.Value
	}
	if n := len(c.Logs); n > 0 {
		b.seq = c.Logs[n-1].Seq
	}
	return nil
}

func (b *Backend) LastSeq(_ context.Context) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq, nil
}
