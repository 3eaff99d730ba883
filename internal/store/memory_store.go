package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is a process-local Store. Values are kept as encoded JSON so callers
// never share memory with what is stored.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Get decodes the value under key into dst.
func (m *MemoryStore) Get(ctx context.Context, key string, dst any) error {
	m.mu.RLock()
	raw, exists := m.data[key]
	m.mu.RUnlock()

	if !exists {
		return ErrAbsent
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// Set stores value under key.
func (m *MemoryStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Raw returns a copy of the encoded value under key, for inspection.
func (m *MemoryStore) Raw(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, exists := m.data[key]
	if !exists {
		return nil, false
	}
	return append([]byte(nil), raw...), true
}
