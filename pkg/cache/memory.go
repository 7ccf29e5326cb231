package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL applies when Set is called with a zero TTL and no default is configured.
const DefaultTTL = 5 * time.Minute

type memoryEntry[V any] struct {
	expiresAt time.Time
	value     V
}

// Memory is a process-local cache. Expired entries are dropped lazily on access.
type Memory[V any] struct {
	items      map[string]memoryEntry[V]
	now        func() time.Time
	defaultTTL time.Duration
	maxEntries int
	mu         sync.Mutex
	closed     bool
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	defaultTTL time.Duration
	maxEntries int
}

// WithDefaultTTL sets the TTL used when Set receives zero.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.defaultTTL = d
	}
}

// WithMaxEntries caps the number of stored entries. When full, expired
// entries are purged first, then the entry closest to expiry is dropped.
func WithMaxEntries(n int) MemoryOption {
	return func(c *memoryConfig) {
		c.maxEntries = n
	}
}

// NewMemory creates an empty in-memory cache.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := memoryConfig{defaultTTL: DefaultTTL}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Memory[V]{
		items:      make(map[string]memoryEntry[V]),
		now:        time.Now,
		defaultTTL: cfg.defaultTTL,
		maxEntries: cfg.maxEntries,
	}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	if m.closed {
		return zero, ErrClosed
	}

	e, ok := m.items[key]
	if !ok {
		return zero, ErrNotFound
	}
	if m.expired(e) {
		delete(m.items, key)
		return zero, ErrNotFound
	}

	return e.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.defaultTTL
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}

	if _, exists := m.items[key]; !exists && m.maxEntries > 0 && len(m.items) >= m.maxEntries {
		m.makeRoom()
	}

	m.items[key] = memoryEntry[V]{value: value, expiresAt: expiresAt}
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.items, key)
	return nil
}

// Close drops all entries. Subsequent calls return ErrClosed. Close is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.items = nil
	return nil
}

// Len reports the number of stored entries, including expired ones not yet dropped.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory[V]) expired(e memoryEntry[V]) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

// makeRoom must be called with mu held.
func (m *Memory[V]) makeRoom() {
	for k, e := range m.items {
		if m.expired(e) {
			delete(m.items, k)
		}
	}
	if len(m.items) < m.maxEntries {
		return
	}

	var (
		victim string
		soonest time.Time
		found   bool
	)
	for k, e := range m.items {
		if e.expiresAt.IsZero() {
			continue
		}
		if !found || e.expiresAt.Before(soonest) {
			victim, soonest, found = k, e.expiresAt, true
		}
	}
	if !found {
		for k := range m.items {
			victim = k
			break
		}
	}
	delete(m.items, victim)
}

var _ Cache[any] = (*Memory[any])(nil)
