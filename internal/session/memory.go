package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process session store with TTL eviction. Suitable for
// single-instance deployments and tests; the Redis store covers everything
// else.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*State
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewMemoryStore creates a store that evicts sessions idle longer than ttl,
// sweeping every sweepInterval.
func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*State),
		ttl:      ttl,
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	if m.ttl > 0 && m.now().Sub(st.LastAccessedAt) > m.ttl {
		delete(m.sessions, key)
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (m *MemoryStore) Save(ctx context.Context, key string, s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	cp.LastAccessedAt = m.now()
	m.sessions[key] = &cp
	return nil
}

func (m *MemoryStore) Evict(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

// Len reports how many sessions are held, for tests and metrics.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *MemoryStore) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.ttl)
	for key, st := range m.sessions {
		if st.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, key)
		}
	}
}
