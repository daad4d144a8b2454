package counter

import (
	"context"
	"sync"
)

type MemoryCounter struct {
	mu     sync.Mutex
	visits map[string]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{visits: make(map[string]int64)}
}

func (m *MemoryCounter) Increment(_ context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits[name]++
	return m.visits[name], nil
}

func (m *MemoryCounter) Snapshot(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]int64, len(m.visits))
	for k, v := range m.visits {
		cp[k] = v
	}
	return cp, nil
}

func (m *MemoryCounter) Close(_ context.Context) error {
	return nil
}
