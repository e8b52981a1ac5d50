package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/prefs/internal/plist"
)

// Memory is an in-process Store. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string]plist.Value
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]plist.Value)}
}

// Get returns a copy of the value at key.
func (m *Memory) Get(key string) (plist.Value, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return plist.Clone(v), true, nil
}

// Set stores a copy of v.
func (m *Memory) Set(key string, v plist.Value) error {
	if err := plist.Validate(v); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = plist.Clone(v)
	return nil
}

// Remove deletes key.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns all keys in ascending order.
func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
