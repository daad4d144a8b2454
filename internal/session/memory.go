package session

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/life-stream-dev/apm-demo/internal/logger"
)

// MemoryStore keeps sessions in an expiring LRU. Every access re-adds the
// entry, which restarts its inactivity timer.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Session]
	ttl   time.Duration
}

// NewMemoryStore bounds the store to maxSessions entries; 0 means unbounded.
func NewMemoryStore(ttl time.Duration, maxSessions int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultMaxInactiveInterval
	}
	onEvict := func(id string, _ *Session) {
		logger.DebugF("Session %s evicted", id)
	}
	return &MemoryStore{
		cache: expirable.NewLRU[string, *Session](maxSessions, onEvict, ttl),
		ttl:   ttl,
	}
}

func (m *MemoryStore) Create(_ context.Context) (*Session, error) {
	s := newSession(m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Add(s.ID, s)
	return s.clone(), nil
}

// touch must be called with m.mu held.
func (m *MemoryStore) touch(id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionIDEmpty
	}
	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.LastAccessedAt = time.Now()
	m.cache.Add(id, s)
	return s, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.touch(id)
	if err != nil {
		return nil, err
	}
	return s.clone(), nil
}

func (m *MemoryStore) SetAttribute(_ context.Context, id, key, value string) error {
	if err := validateIDAndKey(id, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.touch(id)
	if err != nil {
		return err
	}
	s.Attributes[key] = value
	return nil
}

func (m *MemoryStore) GetAttribute(_ context.Context, id, key string) (string, bool, error) {
	if err := validateIDAndKey(id, key); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.touch(id)
	if err != nil {
		return "", false, err
	}
	value, found := s.Attributes[key]
	return value, found, nil
}

func (m *MemoryStore) RemoveAttribute(_ context.Context, id, key string) (string, bool, error) {
	if err := validateIDAndKey(id, key); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.touch(id)
	if err != nil {
		return "", false, err
	}
	previous, found := s.Attributes[key]
	delete(s.Attributes, key)
	return previous, found, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return ErrSessionIDEmpty
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Remove(id)
	return nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

func (m *MemoryStore) Close(_ context.Context) error {
	m.cache.Purge()
	return nil
}
