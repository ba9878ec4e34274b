package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/apexhq/shipdash-backend/pkg/clock"
)

type memoryEntry struct {
	payload    []byte
	insertedAt time.Time
	ttl        time.Duration
}

func (e memoryEntry) valid(now time.Time) bool {
	return now.Sub(e.insertedAt) < e.ttl
}

// Memory is a capacity-bounded TTL cache. Expired entries are evicted lazily
// on the read path; when the capacity is exceeded the oldest insertion goes
// first.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	clk        clock.Clock
}

// NewMemory builds an in-memory store. A maxEntries of zero or below falls
// back to an unbounded map.
func NewMemory(maxEntries int, clk clock.Clock) *Memory {
	if clk == nil {
		clk = clock.New()
	}
	return &Memory{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		clk:        clk,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.valid(m.clk.Now()) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return entry.payload, true, nil
}

func (m *Memory) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	m.entries[key] = memoryEntry{payload: payload, insertedAt: now, ttl: ttl}

	if m.maxEntries > 0 && len(m.entries) > m.maxEntries {
		m.evictOldestLocked(key)
	}
	return nil
}

func (m *Memory) InvalidateAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

func (m *Memory) Stats(context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	keys := make([]string, 0, len(m.entries))
	for key, entry := range m.entries {
		if !entry.valid(now) {
			delete(m.entries, key)
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return Stats{Size: len(keys), Keys: keys}, nil
}

// evictOldestLocked drops the entry with the earliest insertion time, never
// the key that was just written.
func (m *Memory) evictOldestLocked(justWritten string) {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, entry := range m.entries {
		if key == justWritten {
			continue
		}
		if !found || entry.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.insertedAt
			found = true
		}
	}
	if found {
		delete(m.entries, oldestKey)
	}
}
