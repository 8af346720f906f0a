package roles

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a non-persistent Store used in tests and as the in-process
// index of the file-backed stores.
type MemoryStore struct {
	mu    sync.RWMutex
	roles map[Identifier]Role
}

// NewMemoryStore returns a store seeded with a copy of initial.
func NewMemoryStore(initial map[Identifier]Role) *MemoryStore {
	m := &MemoryStore{roles: make(map[Identifier]Role, len(initial))}
	for id, r := range initial {
		if r != RoleNone {
			m.roles[id] = r
		}
	}
	return m
}

func (m *MemoryStore) Role(_ context.Context, id Identifier) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roles[id], nil
}

func (m *MemoryStore) SetRole(_ context.Context, id Identifier, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role == RoleNone {
		delete(m.roles, id)
		return nil
	}
	m.roles[id] = role
	return nil
}

func (m *MemoryStore) DeleteRole(_ context.Context, id Identifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles, id)
	return nil
}

func (m *MemoryStore) ListByRole(_ context.Context, role Role) ([]Identifier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterSorted(m.roles, role), nil
}

// Snapshot copies the current mapping.
func (m *MemoryStore) Snapshot() map[Identifier]Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[Identifier]Role, len(m.roles))
	for id, r := range m.roles {
		out[id] = r
	}
	return out
}

func filterSorted(all map[Identifier]Role, role Role) []Identifier {
	var out []Identifier
	for id, r := range all {
		if r == role {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
