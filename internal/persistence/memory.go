package persistence

import (
	"context"
	"slices"
	"sync"
)

// MemoryAdapter keeps payloads in process memory.
type MemoryAdapter struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryAdapter returns an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{data: make(map[string][]byte)}
}

func (m *MemoryAdapter) Name() string { return "memory" }

func (m *MemoryAdapter) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	payload, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(payload), true, nil
}

func (m *MemoryAdapter) Save(ctx context.Context, key string, payload []byte) error {
	return m.SaveBatch(ctx, []Entry{{Key: key, Payload: payload}})
}

func (m *MemoryAdapter) SaveBatch(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, entry := range entries {
		m.data[entry.Key] = slices.Clone(entry.Payload)
	}
	return nil
}

// Keys lists stored keys in sorted order.
func (m *MemoryAdapter) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func (m *MemoryAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
