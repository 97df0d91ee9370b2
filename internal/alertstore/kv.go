package alertstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// KV is the persistence collaborator under Store: one creation timestamp per symbol.
type KV interface {
	Get(ctx context.Context, symbol string) (time.Time, bool, error)
	Set(ctx context.Context, symbol string, createdAt time.Time) error
	Delete(ctx context.Context, symbol string) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryKV keeps timestamps in process memory.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]time.Time
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]time.Time)}
}

func (m *MemoryKV) Get(_ context.Context, symbol string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.data[symbol]
	return t, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, symbol string, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[symbol] = createdAt
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, symbol)
	return nil
}

func (m *MemoryKV) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
