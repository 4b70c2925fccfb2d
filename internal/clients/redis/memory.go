package redis

import (
	"context"
	"sync"
	"time"
)

// memoryKV is the in-process fallback used when REDIS_ADDR is unset, and by
// tests. Entries strictly expire; an expired entry is a miss, never served.
type memoryKV struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryKV() KV {
	return &memoryKV{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// NewMemoryKVWithClock lets tests control expiry.
func NewMemoryKVWithClock(now func() time.Time) KV {
	return &memoryKV{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: exp}
	return nil
}

func (m *memoryKV) AcquireLease(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if ok && (e.expiresAt.IsZero() || m.now().Before(e.expiresAt)) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.entries[key] = memoryEntry{value: "1", expiresAt: exp}
	return true, nil
}

func (m *memoryKV) ReleaseLease(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryKV) Close() error {
	return nil
}
