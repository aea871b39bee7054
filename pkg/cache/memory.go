package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryBackend is a bounded in-process LRU cache with per-entry TTL.
// Expired entries are treated as absent on read and removed lazily — the
// same double-checked pattern the teacher's runbook cache uses, extended
// here with LRU eviction once the configured capacity is exceeded.
type MemoryBackend struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	entries    map[string]*list.Element
	order      *list.List // front = most recently used

	hits   atomic.Int64
	misses atomic.Int64
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemoryBackend creates an LRU cache bounded to capacity entries
// (capacity<=0 means unbounded) with the given default TTL for Set calls
// that pass ttl<=0.
func NewMemoryBackend(capacity int, defaultTTL time.Duration) *MemoryBackend {
	return &MemoryBackend{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		m.misses.Add(1)
		return nil, false, nil
	}
	entry := el.Value.(*memoryEntry)
	if m.isExpired(entry) {
		m.removeLocked(el)
		m.misses.Add(1)
		return nil, false, nil
	}

	m.order.MoveToFront(el)
	m.hits.Add(1)
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl int64) error {
	d := m.defaultTTL
	if ttl > 0 {
		d = time.Duration(ttl) * time.Second
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.value = stored
		entry.expiresAt = time.Now().Add(d)
		m.order.MoveToFront(el)
		return nil
	}

	entry := &memoryEntry{key: key, value: stored, expiresAt: time.Now().Add(d)}
	el := m.order.PushFront(entry)
	m.entries[key] = el

	if m.capacity > 0 && len(m.entries) > m.capacity {
		m.evictOldest()
	}
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[key]; ok {
		m.removeLocked(el)
	}
	return nil
}

func (m *MemoryBackend) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*list.Element)
	m.order.Init()
	return nil
}

func (m *MemoryBackend) Stats() Stats {
	m.mu.Lock()
	size := len(m.entries)
	m.mu.Unlock()

	hits := m.hits.Load()
	misses := m.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Size: size, Hits: hits, Misses: misses, HitRate: rate}
}

func (m *MemoryBackend) Close() error { return nil }

func (m *MemoryBackend) isExpired(e *memoryEntry) bool {
	return time.Now().After(e.expiresAt)
}

// evictOldest removes the least-recently-used entry. Caller holds m.mu.
func (m *MemoryBackend) evictOldest() {
	oldest := m.order.Back()
	if oldest != nil {
		m.removeLocked(oldest)
	}
}

// removeLocked removes a list element and its map entry. Caller holds m.mu.
func (m *MemoryBackend) removeLocked(el *list.Element) {
	entry := el.Value.(*memoryEntry)
	delete(m.entries, entry.key)
	m.order.Remove(el)
}
