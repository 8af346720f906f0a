// Package directory holds the name → link resource directory contract.
package directory

import (
	"context"
	"strings"
	"sync"
)

// Store persists resources. Names are exact-match keys; the last write wins.
type Store interface {
	Put(ctx context.Context, name, link string) error
	// PutMany maps every name to link and persists once.
	PutMany(ctx context.Context, names []string, link string) error
	Get(ctx context.Context, name string) (link string, ok bool, err error)
}

// SplitNames splits a comma separated list, trimming entries and dropping empty ones.
func SplitNames(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// MemoryStore is a non-persistent Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore returns a store seeded with a copy of initial.
func NewMemoryStore(initial map[string]string) *MemoryStore {
	m := &MemoryStore{entries: make(map[string]string, len(initial))}
	for k, v := range initial {
		m.entries[k] = v
	}
	return m
}

func (m *MemoryStore) Put(_ context.Context, name, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = link
	return nil
}

func (m *MemoryStore) PutMany(_ context.Context, names []string, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		m.entries[name] = link
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	link, ok := m.entries[name]
	return link, ok, nil
}

// Snapshot copies the current entries.
func (m *MemoryStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
