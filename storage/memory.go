package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/spektr-org/pivot/engine"
)

// Memory keeps snapshots as JSON strings, so callers never share state with
// the store.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.items))
	for name := range m.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Load(_ context.Context, name string) (*engine.Snapshot, error) {
	m.mu.RLock()
	body, ok := m.items[name]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(name)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return &snap, nil
}

func (m *Memory) Save(_ context.Context, snap engine.Snapshot) error {
	if err := checkName(snap.Name); err != nil {
		return err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", snap.Name, err)
	}

	m.mu.Lock()
	m.items[snap.Name] = string(body)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[name]; !ok {
		return notFound(name)
	}
	delete(m.items, name)
	return nil
}
