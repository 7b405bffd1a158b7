package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/ports"
)

const defaultMemorySize = 256

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a bounded in-process store evicting least recently used keys.
type MemoryStore struct {
	cache *lru.Cache[string, memoryEntry]
	ttl   time.Duration
	now   func() time.Time
}

var _ ports.KVStore = (*MemoryStore)(nil)

// NewMemoryStore holds at most size entries.
func NewMemoryStore(size int, ttl time.Duration) (*MemoryStore, error) {
	if size <= 0 {
		size = defaultMemorySize
	}
	cache, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("storage: new lru: %w", err)
	}
	return &MemoryStore{cache: cache, ttl: ttl, now: time.Now}, nil
}

// Get returns a copy of the payload stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := m.cache.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.cache.Remove(key)
		return nil, domain.ErrCacheMiss
	}
	return append([]byte(nil), entry.value...), nil
}

// Set stores a copy of value.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.cache.Add(key, entry)
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Remove(key)
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	removed := 0
	for _, key := range m.cache.Keys() {
		if strings.HasPrefix(key, prefix) && m.cache.Remove(key) {
			removed++
		}
	}
	return removed, nil
}

// Close drops every entry.
func (m *MemoryStore) Close() error {
	m.cache.Purge()
	return nil
}
