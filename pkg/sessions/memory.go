package sessions

import (
	"context"
	"maps"
	"sync"
	"time"
)

// memoryEntry holds a stored record with its expiration time.
type memoryEntry struct {
	expiresAt time.Time // zero value = never expires
	rec       Record
}

func (e *memoryEntry) isExpired(now time.Time) bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return now.After(e.expiresAt)
}

// Memory is an in-process session store with TTL-based expiration and a
// background janitor that reclaims expired records. Suitable for tests and
// single-instance deployments; use the Redis store behind a load balancer.
type Memory struct {
	items  map[string]*memoryEntry
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// MemoryOption configures the Memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	cleanupInterval time.Duration
}

// WithCleanupInterval sets how often the janitor removes expired records.
// A non-positive interval disables the janitor; expired records are then
// reclaimed lazily on Load. Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.cleanupInterval = d
	}
}

// NewMemory creates a new in-memory session store.
//
// Example:
//
//	store := sessions.NewMemory(
//	    sessions.WithCleanupInterval(30 * time.Second),
//	)
//	defer store.Close()
func NewMemory(opts ...MemoryOption) *Memory {
	o := &memoryOptions{cleanupInterval: time.Minute}
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory{
		items: make(map[string]*memoryEntry),
		done:  make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go m.janitor(o.cleanupInterval)
	}

	return m
}

// Load retrieves the record stored under token.
// Returns ErrNotFound if the token is unknown or has expired.
func (m *Memory) Load(_ context.Context, token string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[token]
	if !ok {
		return nil, ErrNotFound
	}

	if e.isExpired(time.Now()) {
		delete(m.items, token)
		return nil, ErrNotFound
	}

	// Copy out so callers never alias the stored map.
	rec := Record{ID: e.rec.ID, Data: maps.Clone(e.rec.Data)}
	return &rec, nil
}

// Save persists the record under token with the given TTL.
// A non-positive TTL stores the record without expiration.
func (m *Memory) Save(_ context.Context, token string, rec *Record, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.items[token] = &memoryEntry{
		rec:       Record{ID: rec.ID, Data: maps.Clone(rec.Data)},
		expiresAt: expiresAt,
	}

	return nil
}

// Delete removes the record stored under token. Idempotent.
func (m *Memory) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.items, token)
	return nil
}

// Close stops the janitor goroutine and marks the store as closed.
// Close is idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)

	return nil
}

// janitor periodically removes expired records.
func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for token, e := range m.items {
		if e.isExpired(now) {
			delete(m.items, token)
		}
	}
}

var _ Store = (*Memory)(nil)
