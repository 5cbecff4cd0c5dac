package secrets

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store, used for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	puts   int
}

func NewMemoryStore(initial map[string]string) *MemoryStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

func (m *MemoryStore) Get(_ context.Context, name string, _ bool) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return value, nil
}

func (m *MemoryStore) Put(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[name] = value
	m.puts++
	return nil
}

// Puts reports how many writes the store has received.
func (m *MemoryStore) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}
