package featured

import (
	"context"
	"strings"
	"sync"
	"time"

	"WikiTrends/internal/domain"
)

type pageViewsFunc func(ctx context.Context, language string, day time.Time) ([]domain.PageViewItem, error)

func (f pageViewsFunc) TopPages(ctx context.Context, language string, day time.Time) ([]domain.PageViewItem, error) {
	return f(ctx, language, day)
}

type detailsFunc func(ctx context.Context, language, title string) (domain.PageDetail, error)

func (f detailsFunc) PageDetails(ctx context.Context, language, title string) (domain.PageDetail, error) {
	return f(ctx, language, title)
}

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	setErr  error
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *memStore) Close() error { return nil }

func date(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
