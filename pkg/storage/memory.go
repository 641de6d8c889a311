package storage

import (
	"context"
	"sync"
)

const backendMemory = "memory"

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()

	if !ok {
		observe(backendMemory, "get", ErrNotFound)
		return "", ErrNotFound
	}
	observe(backendMemory, "get", nil)
	return v, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()

	observe(backendMemory, "set", nil)
	return nil
}

// SetMany stores every pair under one lock.
func (m *MemoryStore) SetMany(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	for k, v := range values {
		m.values[k] = v
	}
	m.mu.Unlock()

	observe(backendMemory, "set_many", nil)
	return nil
}

// Remove deletes key.
func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()

	observe(backendMemory, "remove", nil)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
