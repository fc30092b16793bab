package store

import (
	"context"
	"sync"
)

// MemoryKV keeps entries in process memory. Used for tests and dry runs.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]Entry)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.entries[key]
	return Entry{Value: cloneBytes(e.Value), Version: e.Version}, nil
}

func (m *MemoryKV) CompareAndSwap(_ context.Context, key string, version int64, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[key].Version != version {
		return false, nil
	}
	m.entries[key] = Entry{Value: cloneBytes(value), Version: version + 1}
	return true, nil
}

func (m *MemoryKV) PutAll(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range values {
		m.entries[key] = Entry{Value: cloneBytes(value), Version: m.entries[key].Version + 1}
	}
	return nil
}

// Set stores a raw value, bypassing the version check. Tests use it to
// plant corrupt data.
func (m *MemoryKV) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{Value: cloneBytes(value), Version: m.entries[key].Version + 1}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
